package model

import "time"

// BaseModel 通用审计字段（所有业务模型嵌入）
// created_by/updated_by 记录网关透传的操作人标识，非本系统外键
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:varchar(64)"                   json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:varchar(64)"                   json:"updated_by,omitempty"`
}

// VersionedModel 支持乐观锁的模型
type VersionedModel struct {
	BaseModel
	Version int `gorm:"not null;default:1" json:"version"`
}

// SetCreator 同时填充创建人与更新人
func (b *BaseModel) SetCreator(operatorID *string) {
	b.CreatedBy = operatorID
	b.UpdatedBy = operatorID
}
