package middleware

import (
	"net/http"
	"strings"

	"stelle_world_server/pkg/errorx"
	"stelle_world_server/pkg/util/jwt"

	"github.com/gin-gonic/gin"
)

// 上下文键
const (
	CtxUserId  = "user_id"
	CtxIsAdmin = "is_admin"
)

// JWTAuth JWT 认证中间件
// 验证 Access Token 并将用户信息存入上下文
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearer(c)
		if !ok {
			return
		}
		c.Set(CtxUserId, claims.UserID)
		c.Set(CtxIsAdmin, claims.IsAdmin)
		c.Next()
	}
}

// AdminAuth 管理员认证中间件
// 在 JWTAuth 基础上要求 is_admin 声明
func AdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearer(c)
		if !ok {
			return
		}
		if !claims.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code": errorx.CodeForbidden,
				"msg":  "仅限客服/管理员访问",
			})
			return
		}
		c.Set(CtxUserId, claims.UserID)
		c.Set(CtxIsAdmin, true)
		c.Next()
	}
}

// OptionalAuth 可选认证中间件
// 访客端接口使用：带合法 Token 则解析出当前用户，否则放行为匿名访客
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" {
				if claims, err := jwt.ParseToken(parts[1]); err == nil && claims.Subject == "access_token" {
					c.Set(CtxUserId, claims.UserID)
					c.Set(CtxIsAdmin, claims.IsAdmin)
				}
			}
		}
		c.Next()
	}
}

// CurrentUserId 从上下文取当前用户 id，匿名访客返回 (0, false)
func CurrentUserId(c *gin.Context) (uint, bool) {
	v, exists := c.Get(CtxUserId)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// parseBearer 解析并校验 Authorization 头中的 Access Token
// 失败时已向客户端写入 401 响应并中止请求链
func parseBearer(c *gin.Context) (*jwt.Claims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"code": errorx.CodeUnauthorized,
			"msg":  "请先登录",
		})
		return nil, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"code": errorx.CodeUnauthorized,
			"msg":  "Token 格式错误，请使用 Bearer Token",
		})
		return nil, false
	}

	claims, err := jwt.ParseToken(parts[1])
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"code": errorx.CodeUnauthorized,
			"msg":  "Token 已过期或无效，请重新登录",
		})
		return nil, false
	}

	if claims.Subject != "access_token" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"code": errorx.CodeUnauthorized,
			"msg":  "请使用 Access Token 访问此接口",
		})
		return nil, false
	}

	return claims, true
}
