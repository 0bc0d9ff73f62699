package request

// LoginRequest 后台用户密码登录请求
// 使用位置:
//   - internal/handler/auth_handler.go: LoginHandler
//   - internal/service/auth/service.go: Login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}
