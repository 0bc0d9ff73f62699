package respond

// LoginRespond 后台用户登录响应
// 使用位置:
//   - internal/service/auth/service.go: Login
type LoginRespond struct {
	UserId       uint   `json:"user_id"`
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	IsAdmin      int8   `json:"is_admin"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
