// Package auth 实现后台认证业务
package auth

import (
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"stelle_world_server/internal/dao/mysql/repository"
	"stelle_world_server/internal/dto/request"
	"stelle_world_server/internal/dto/respond"
	"stelle_world_server/pkg/errorx"
	"stelle_world_server/pkg/util/jwt"
)

type authService struct {
	userRepo repository.UserRepository
}

// NewAuthService 创建认证 Service
func NewAuthService(repos *repository.Repositories) *authService {
	return &authService{userRepo: repos.User}
}

// Login 邮箱密码登录
// 密码以 bcrypt 校验；登录成功签发访问令牌和刷新令牌
func (s *authService) Login(req request.LoginRequest) (*respond.LoginRespond, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeUserNotExist, "用户不存在")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errorx.New(errorx.CodeInvalidPassword, "密码错误")
	}

	isAdmin := user.IsAdmin == 1
	accessToken, err := jwt.GenerateAccessToken(user.ID, isAdmin)
	if err != nil {
		zap.L().Error("签发访问令牌失败", zap.Uint("user_id", user.ID), zap.Error(err))
		return nil, errorx.Wrap(err, errorx.CodeServerBusy, "令牌签发失败")
	}
	refreshToken, _, err := jwt.GenerateRefreshToken(user.ID, isAdmin)
	if err != nil {
		zap.L().Error("签发刷新令牌失败", zap.Uint("user_id", user.ID), zap.Error(err))
		return nil, errorx.Wrap(err, errorx.CodeServerBusy, "令牌签发失败")
	}

	return &respond.LoginRespond{
		UserId:       user.ID,
		FullName:     user.FullName,
		Email:        user.Email,
		IsAdmin:      user.IsAdmin,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
