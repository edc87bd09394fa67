package model

// AllModels 返回全部模型，供 AutoMigrate 使用.
func AllModels() []any {
	return []any{
		&ServiceAccount{},
		&Instrument{},
		&StorageLocation{},
		&HarvestSchedule{},
		&HookConfig{},
		&FileRecord{},
		&FileTransfer{},
		&FileAccessGrant{},
		&User{},
		&Group{},
		&GroupMembership{},
		&Project{},
		&ProjectMembership{},
	}
}
