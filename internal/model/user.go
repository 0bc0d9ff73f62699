// Package model 定义数据库实体模型
// 本文件定义用户模型（注册客户与后台客服共用一张表）
package model

import (
	"gorm.io/gorm"
)

// User 用户模型
// 对应数据库 users 表
// 聊天核心只关心展示名、邮箱和管理员标记，其余店铺侧字段由外围模块维护
type User struct {
	gorm.Model

	// FullName 用户展示名
	// 消息归属展示时使用
	FullName string `gorm:"column:full_name;type:varchar(100);not null;comment:用户姓名"`

	// Email 登录邮箱，唯一
	Email string `gorm:"column:email;uniqueIndex;type:varchar(255);not null;comment:邮箱"`

	// Phone 联系电话，可空
	Phone string `gorm:"column:phone;type:varchar(20);comment:电话"`

	// Password bcrypt 哈希后的密码
	Password string `gorm:"column:password;type:varchar(100);not null;comment:密码哈希"`

	// IsAdmin 是否为后台客服/管理员
	// 0=普通用户, 1=管理员
	IsAdmin int8 `gorm:"column:is_admin;not null;default:0;comment:是否管理员"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
