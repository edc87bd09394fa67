package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	ctxPkg "github.com/yeisme/streamweave/pkg/context"
	"github.com/yeisme/streamweave/pkg/internal/model"
)

// AccessService 实现文件可见性解析.
//
// 非特权用户 U 可见文件 F 当且仅当：F 属于 U，或存在 user 授权指向 U，
// 或存在 group 授权指向 U 所在的组，或存在 project 授权指向 U 直接参与
// 或经由所在组参与的项目. 管理员完全绕过该规则.
type AccessService struct {
	db *gorm.DB
}

// NewAccessService 从请求上下文创建访问解析服务.
func NewAccessService(c context.Context) *AccessService {
	return &AccessService{db: ctxPkg.GetDBClient(c).GetDB()}
}

// NewAccessServiceWithDB 直接注入数据库连接.
func NewAccessServiceWithDB(db *gorm.DB) *AccessService {
	return &AccessService{db: db}
}

// groupIDs 用户直接所属的组 id 子查询.
func (s *AccessService) groupIDs(userID uint) *gorm.DB {
	return s.db.Model(&model.GroupMembership{}).
		Select("group_id").
		Where("user_id = ?", userID)
}

// projectIDs 用户直接参与或经由所在组参与的项目 id 子查询.
func (s *AccessService) projectIDs(userID uint) *gorm.DB {
	return s.db.Model(&model.ProjectMembership{}).
		Select("project_id").
		Where("member_type = ? AND member_id = ?", model.MemberUser, userID).
		Or("member_type = ? AND member_id IN (?)", model.MemberGroup, s.groupIDs(userID))
}

// ScopeVisible 把可见性条件套在一个 FileRecord 查询上.
// 四个条件组合为单次集合查询，避免多轮往返下的读一致性漂移.
func (s *AccessService) ScopeVisible(q *gorm.DB, user *model.User) *gorm.DB {
	if user.IsAdmin() {
		return q
	}

	userGrants := s.db.Model(&model.FileAccessGrant{}).
		Select("file_id").
		Where("grantee_type = ? AND grantee_id = ?", model.GranteeUser, user.ID)

	groupGrants := s.db.Model(&model.FileAccessGrant{}).
		Select("file_id").
		Where("grantee_type = ? AND grantee_id IN (?)", model.GranteeGroup, s.groupIDs(user.ID))

	projectGrants := s.db.Model(&model.FileAccessGrant{}).
		Select("file_id").
		Where("grantee_type = ? AND grantee_id IN (?)", model.GranteeProject, s.projectIDs(user.ID))

	cond := s.db.Session(&gorm.Session{NewDB: true}).
		Where("owner_id = ?", user.ID).
		Or("id IN (?)", userGrants).
		Or("id IN (?)", groupGrants).
		Or("id IN (?)", projectGrants)

	return q.Where(cond)
}

// ListVisibleFiles 返回用户可见的全部文件记录.
func (s *AccessService) ListVisibleFiles(ctx context.Context, user *model.User) ([]model.FileRecord, error) {
	var files []model.FileRecord

	q := s.db.WithContext(ctx).Model(&model.FileRecord{}).Order("id")
	if err := s.ScopeVisible(q, user).Find(&files).Error; err != nil {
		return nil, err
	}

	return files, nil
}

// CanAccess 判断用户能否看到指定文件.
func (s *AccessService) CanAccess(ctx context.Context, user *model.User, fileID uint) (bool, error) {
	var count int64

	q := s.db.WithContext(ctx).Model(&model.FileRecord{}).Where("file_records.id = ?", fileID)
	if err := s.ScopeVisible(q, user).Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

// Grant 创建一条访问授权. 重复授权无害，不做唯一性检查.
// 未知的 grantee 类型被拒绝：可见性查询永远不会匹配到这样的行.
func (s *AccessService) Grant(ctx context.Context, fileID uint, granteeType model.GranteeType, granteeID uint) (*model.FileAccessGrant, error) {
	if !model.ValidGranteeType(granteeType) {
		return nil, fmt.Errorf("invalid grantee type: %s", granteeType)
	}

	grant := &model.FileAccessGrant{
		FileID:      fileID,
		GranteeType: granteeType,
		GranteeID:   granteeID,
	}

	if err := s.db.WithContext(ctx).Create(grant).Error; err != nil {
		return nil, err
	}

	return grant, nil
}
