package service

import (
	"context"
	"testing"
	"time"

	"github.com/yeisme/streamweave/pkg/internal/model"
	"github.com/yeisme/streamweave/pkg/internal/transfer"
)

func TestFilterNewExcludesKnown(t *testing.T) {
	db := newTestDB(t)
	inst := mustCreate(t, db, &model.Instrument{Name: "scope-a", Adapter: model.AdapterRclone})

	mustCreate(t, db, &model.FileRecord{
		PersistentID: "ark:/99999/fk4known", PersistentIDScheme: model.SchemeARK,
		InstrumentID: inst.ID, SourcePath: "exp/known.tif", Filename: "known.tif",
		FirstDiscoveredAt: time.Now(),
	})

	files := []transfer.DiscoveredFile{
		{Path: "exp/known.tif", Filename: "known.tif"},
		{Path: "exp/new1.tif", Filename: "new1.tif"},
		{Path: "exp/new2.tif", Filename: "new2.tif"},
	}

	fresh, err := NewDiscoveryService(db).FilterNew(context.Background(), inst.ID, files)
	if err != nil {
		t.Fatal(err)
	}

	if len(fresh) != 2 || fresh[0].Path != "exp/new1.tif" || fresh[1].Path != "exp/new2.tif" {
		t.Fatalf("fresh = %+v", fresh)
	}
}

func TestFilterNewScopedToInstrument(t *testing.T) {
	db := newTestDB(t)
	a := mustCreate(t, db, &model.Instrument{Name: "scope-a", Adapter: model.AdapterRclone})
	b := mustCreate(t, db, &model.Instrument{Name: "scope-b", Adapter: model.AdapterRclone})

	// 同一路径在另一台仪器上已知，不影响本仪器
	mustCreate(t, db, &model.FileRecord{
		PersistentID: "ark:/99999/fk4other", PersistentIDScheme: model.SchemeARK,
		InstrumentID: b.ID, SourcePath: "exp/a.tif", Filename: "a.tif",
		FirstDiscoveredAt: time.Now(),
	})

	fresh, err := NewDiscoveryService(db).FilterNew(context.Background(), a.ID,
		[]transfer.DiscoveredFile{{Path: "exp/a.tif", Filename: "a.tif"}})
	if err != nil {
		t.Fatal(err)
	}

	if len(fresh) != 1 {
		t.Fatalf("fresh = %+v, uniqueness is per instrument", fresh)
	}
}

func TestFilterNewEmptyInputNoQuery(t *testing.T) {
	// 不建表也不能报错：空输入不应触达数据库
	s := NewDiscoveryService(nil)

	fresh, err := s.FilterNew(context.Background(), 1, nil)
	if err != nil || fresh != nil {
		t.Fatalf("fresh = %v, err = %v", fresh, err)
	}
}
