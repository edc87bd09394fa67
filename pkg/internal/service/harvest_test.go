package service

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/yeisme/streamweave/pkg/configs"
	"github.com/yeisme/streamweave/pkg/internal/hook"
	"github.com/yeisme/streamweave/pkg/internal/model"
	"github.com/yeisme/streamweave/pkg/internal/secrets"
	"github.com/yeisme/streamweave/pkg/internal/transfer"
)

// fakeAdapter 返回预置列表并按路径决定传输结果.
type fakeAdapter struct {
	files       []transfer.DiscoveredFile
	failPaths   map[string]string
	discovers   int
	transferred []string
}

func (f *fakeAdapter) Discover(_ context.Context) ([]transfer.DiscoveredFile, error) {
	f.discovers++

	return f.files, nil
}

func (f *fakeAdapter) Transfer(_ context.Context, sourcePath, destPath string) *transfer.TransferResult {
	f.transferred = append(f.transferred, sourcePath)

	if msg, ok := f.failPaths[sourcePath]; ok {
		return &transfer.TransferResult{
			SourcePath: sourcePath, DestinationPath: destPath, ErrorMessage: msg,
		}
	}

	return &transfer.TransferResult{
		Success: true, SourcePath: sourcePath, DestinationPath: destPath,
		BytesTransferred: 1024, DestChecksum: "00000000deadbeef",
	}
}

func (f *fakeAdapter) Checksum(_ context.Context, _ string) (string, error) {
	return "00000000deadbeef", nil
}

// harvestFixture 直接组装编排器，跳过上下文注入.
func harvestFixture(t *testing.T, db *gorm.DB, ad transfer.Adapter) *HarvestService {
	t.Helper()

	key, err := secrets.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}

	cfg := &configs.HarvestConfig{
		ARKNaan: "99999", ARKShoulder: "fk4", IDScheme: model.SchemeARK,
		Workers: 1, FileTimeoutMinutes: 5, EncryptionKey: key,
	}

	return &HarvestService{
		db:     db,
		cfg:    cfg,
		runner: hook.NewRunner(),
		ids:    NewIdentifierService(cfg),
		disc:   NewDiscoveryService(db),
		newAdapter: func(_ *configs.HarvestConfig, _ *model.Instrument, _ *secrets.Box) (transfer.Adapter, error) {
			return ad, nil
		},
	}
}

// seedHarvest 建好仪器、存储位置与计划.
func seedHarvest(t *testing.T, db *gorm.DB) (*model.Instrument, *model.HarvestSchedule) {
	t.Helper()

	inst := mustCreate(t, db, &model.Instrument{Name: "microscope1", Adapter: model.AdapterRclone, Enabled: true})
	loc := mustCreate(t, db, &model.StorageLocation{
		Name: "primary", Type: model.StoragePosix, BasePath: t.TempDir(), Enabled: true,
	})
	sched := mustCreate(t, db, &model.HarvestSchedule{
		InstrumentID: inst.ID, DefaultStorageLocationID: loc.ID, CronExpr: "0 * * * *", Enabled: true,
	})

	return inst, sched
}

func addHook(t *testing.T, db *gorm.DB, instID uint, trigger model.HookTrigger, builtin, cfg string, priority int) {
	t.Helper()

	mustCreate(t, db, &model.HookConfig{
		Name: builtin, Trigger: trigger, Kind: model.HookKindBuiltin,
		BuiltinName: builtin, ConfigJSON: cfg,
		InstrumentID: &instID, Priority: priority, Enabled: true,
	})
}

func TestRunHarvestScenario(t *testing.T) {
	// 两个远端文件，一个前置钩子排除 *.tmp：a.tif 完成传输，
	// b.tmp 入库但传输行为 skipped 且带排除说明
	db := newTestDB(t)
	inst, sched := seedHarvest(t, db)
	addHook(t, db, inst.ID, model.TriggerPreTransfer, hook.BuiltinFileFilter, `{"exclude": ["*.tmp"]}`, 0)

	ad := &fakeAdapter{files: []transfer.DiscoveredFile{
		{Path: "exp/a.tif", Filename: "a.tif", SizeBytes: 1024},
		{Path: "exp/b.tmp", Filename: "b.tmp", SizeBytes: 10},
	}}

	summary, err := harvestFixture(t, db, ad).RunHarvest(context.Background(), inst.ID, sched.ID)
	if err != nil {
		t.Fatal(err)
	}

	want := RunSummary{Discovered: 2, New: 2, Transferred: 1, Skipped: 1, Failed: 0}
	if *summary != want {
		t.Fatalf("summary = %+v, want %+v", summary, want)
	}

	var records []model.FileRecord
	if err := db.Order("source_path").Find(&records).Error; err != nil {
		t.Fatal(err)
	}

	if len(records) != 2 {
		t.Fatalf("records = %d, want 2 (skipped files still get a FileRecord)", len(records))
	}

	for _, r := range records {
		if !strings.HasPrefix(r.PersistentID, "ark:/99999/fk4") {
			t.Errorf("record %s has pid %q", r.SourcePath, r.PersistentID)
		}
	}

	var tifTransfer model.FileTransfer
	if err := db.Where("file_id = ?", records[0].ID).First(&tifTransfer).Error; err != nil {
		t.Fatal(err)
	}

	if tifTransfer.Status != model.TransferCompleted || tifTransfer.BytesTransferred != 1024 {
		t.Fatalf("tif transfer = %+v", tifTransfer)
	}

	if records[0].DestChecksum != "00000000deadbeef" {
		t.Fatalf("dest checksum not copied onto record: %q", records[0].DestChecksum)
	}

	var tmpTransfer model.FileTransfer
	if err := db.Where("file_id = ?", records[1].ID).First(&tmpTransfer).Error; err != nil {
		t.Fatal(err)
	}

	if tmpTransfer.Status != model.TransferSkipped || !strings.Contains(tmpTransfer.ErrorMessage, "*.tmp") {
		t.Fatalf("tmp transfer = %+v, want skipped citing the pattern", tmpTransfer)
	}

	// 被跳过的文件不应触发传输
	if len(ad.transferred) != 1 || ad.transferred[0] != "exp/a.tif" {
		t.Fatalf("transferred = %v", ad.transferred)
	}
}

func TestRunHarvestFailureContainedAndNotRetried(t *testing.T) {
	db := newTestDB(t)
	inst, sched := seedHarvest(t, db)

	ad := &fakeAdapter{
		files: []transfer.DiscoveredFile{
			{Path: "exp/ok.tif", Filename: "ok.tif"},
			{Path: "exp/bad.tif", Filename: "bad.tif"},
		},
		failPaths: map[string]string{"exp/bad.tif": "rclone copyto failed: share unavailable"},
	}

	svc := harvestFixture(t, db, ad)

	summary, err := svc.RunHarvest(context.Background(), inst.ID, sched.ID)
	if err != nil {
		t.Fatal(err)
	}

	if summary.Transferred != 1 || summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	var failed model.FileTransfer
	if err := db.Where("status = ?", model.TransferFailed).First(&failed).Error; err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(failed.ErrorMessage, "share unavailable") || failed.CompletedAt == nil {
		t.Fatalf("failed transfer = %+v", failed)
	}

	// 失败文件的 FileRecord 保留，第二轮去重后不再提供
	summary2, err := svc.RunHarvest(context.Background(), inst.ID, sched.ID)
	if err != nil {
		t.Fatal(err)
	}

	if summary2.Discovered != 2 || summary2.New != 0 {
		t.Fatalf("second run summary = %+v, failed files must not be re-offered", summary2)
	}
}

func TestRunHarvestRedirectRewritesDestination(t *testing.T) {
	db := newTestDB(t)
	inst, sched := seedHarvest(t, db)
	addHook(t, db, inst.ID, model.TriggerPreTransfer, hook.BuiltinFileFilter,
		`{"redirect": [{"pattern": "*.raw", "destination": "/quarantine"}]}`, 0)

	ad := &fakeAdapter{files: []transfer.DiscoveredFile{{Path: "exp/s.raw", Filename: "s.raw"}}}

	if _, err := harvestFixture(t, db, ad).RunHarvest(context.Background(), inst.ID, sched.ID); err != nil {
		t.Fatal(err)
	}

	var ft model.FileTransfer
	if err := db.First(&ft).Error; err != nil {
		t.Fatal(err)
	}

	if ft.DestinationPath != "/quarantine/microscope1/exp/s.raw" {
		t.Fatalf("destination = %q", ft.DestinationPath)
	}
}

func TestRunHarvestGrantResolution(t *testing.T) {
	db := newTestDB(t)
	inst, sched := seedHarvest(t, db)

	alice := mustCreate(t, db, &model.User{Email: "alice@lab", Name: "alice"})
	lab := mustCreate(t, db, &model.Group{Name: "lab"})

	// 文件名形如 alice@lab_scan.tif，从中提取 owner 元数据
	addHook(t, db, inst.ID, model.TriggerPostTransfer, hook.BuiltinMetadataEnrichment,
		`{"rules": [{"pattern": "^(?P<owner>[^_]+)_", "source": "filename"}]}`, 0)
	addHook(t, db, inst.ID, model.TriggerPostTransfer, hook.BuiltinAccessAssignment, `{
		"rules": [
			{"grantee_type": "user", "match_field": "owner", "source": "metadata"},
			{"grantee_type": "group", "match_field": "`+uitoa(lab.ID)+`", "source": "literal"},
			{"grantee_type": "project", "match_field": "not-a-number", "source": "literal"},
			{"grantee_type": "project", "match_field": "missing", "source": "metadata"}
		]
	}`, 10)

	ad := &fakeAdapter{files: []transfer.DiscoveredFile{
		{Path: "exp/alice@lab_scan.tif", Filename: "alice@lab_scan.tif"},
	}}

	if _, err := harvestFixture(t, db, ad).RunHarvest(context.Background(), inst.ID, sched.ID); err != nil {
		t.Fatal(err)
	}

	var record model.FileRecord
	if err := db.First(&record).Error; err != nil {
		t.Fatal(err)
	}

	meta, err := record.Metadata()
	if err != nil {
		t.Fatal(err)
	}

	if meta["owner"] != "alice@lab" {
		t.Fatalf("metadata = %v", meta)
	}

	var grants []model.FileAccessGrant
	if err := db.Order("id").Find(&grants).Error; err != nil {
		t.Fatal(err)
	}

	// 合法的 deferred 与 literal 各一条；非法 literal 与未命中元数据被丢弃
	if len(grants) != 2 {
		t.Fatalf("grants = %+v, want 2", grants)
	}

	if grants[0].GranteeType != model.GranteeUser || grants[0].GranteeID != alice.ID {
		t.Fatalf("deferred grant = %+v", grants[0])
	}

	if grants[1].GranteeType != model.GranteeGroup || grants[1].GranteeID != lab.ID {
		t.Fatalf("literal grant = %+v", grants[1])
	}
}

func TestRunHarvestConfigErrorsFailFast(t *testing.T) {
	db := newTestDB(t)
	inst, sched := seedHarvest(t, db)

	ad := &fakeAdapter{files: []transfer.DiscoveredFile{{Path: "exp/a.tif", Filename: "a.tif"}}}

	t.Run("unimplemented scheme", func(t *testing.T) {
		svc := harvestFixture(t, db, ad)
		svc.cfg.IDScheme = model.SchemeDOI
		svc.ids = NewIdentifierService(svc.cfg)

		if _, err := svc.RunHarvest(context.Background(), inst.ID, sched.ID); err == nil {
			t.Fatal("expected error")
		}

		if ad.discovers != 0 {
			t.Fatal("configuration errors must abort before any file is touched")
		}
	})

	t.Run("bad encryption key", func(t *testing.T) {
		svc := harvestFixture(t, db, ad)
		svc.cfg.EncryptionKey = "not-a-key"

		if _, err := svc.RunHarvest(context.Background(), inst.ID, sched.ID); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("missing instrument", func(t *testing.T) {
		svc := harvestFixture(t, db, ad)

		if _, err := svc.RunHarvest(context.Background(), 9999, sched.ID); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestRunHarvestNoNewFiles(t *testing.T) {
	db := newTestDB(t)
	inst, sched := seedHarvest(t, db)

	ad := &fakeAdapter{}

	summary, err := harvestFixture(t, db, ad).RunHarvest(context.Background(), inst.ID, sched.ID)
	if err != nil {
		t.Fatal(err)
	}

	if *summary != (RunSummary{}) {
		t.Fatalf("summary = %+v", summary)
	}
}

func uitoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
