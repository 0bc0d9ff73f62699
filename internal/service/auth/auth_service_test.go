package auth

import (
	"fmt"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"stelle_world_server/internal/dao/mysql/repository"
	"stelle_world_server/internal/dto/request"
	"stelle_world_server/internal/model"
	"stelle_world_server/pkg/errorx"
	"stelle_world_server/pkg/util/jwt"
)

func newTestAuth(t *testing.T) (*authService, *repository.Repositories) {
	t.Helper()
	jwt.Init("test-secret-test-secret-test-secret", 15, 168)
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	repos := repository.NewRepositories(db)
	return NewAuthService(repos), repos
}

func createUser(t *testing.T, repos *repository.Repositories, email, password string, isAdmin int8) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	if err := repos.User.Create(&model.User{
		FullName: "测试用户",
		Email:    email,
		Password: string(hash),
		IsAdmin:  isAdmin,
	}); err != nil {
		t.Fatal(err)
	}
}

func TestLogin(t *testing.T) {
	svc, repos := newTestAuth(t)
	createUser(t, repos, "staff@stelle.example", "password123", 1)

	resp, err := svc.Login(request.LoginRequest{Email: "staff@stelle.example", Password: "password123"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("tokens missing")
	}

	claims, err := jwt.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatal(err)
	}
	if !claims.IsAdmin {
		t.Fatal("is_admin claim not set")
	}
	if claims.UserID != resp.UserId {
		t.Fatalf("claims user id = %d, want %d", claims.UserID, resp.UserId)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, repos := newTestAuth(t)
	createUser(t, repos, "staff@stelle.example", "password123", 0)

	_, err := svc.Login(request.LoginRequest{Email: "staff@stelle.example", Password: "nope-nope"})
	if errorx.GetCode(err) != errorx.CodeInvalidPassword {
		t.Fatalf("code = %d, want CodeInvalidPassword", errorx.GetCode(err))
	}
}

func TestLoginUnknownUser(t *testing.T) {
	svc, _ := newTestAuth(t)
	_, err := svc.Login(request.LoginRequest{Email: "ghost@stelle.example", Password: "whatever"})
	if errorx.GetCode(err) != errorx.CodeUserNotExist {
		t.Fatalf("code = %d, want CodeUserNotExist", errorx.GetCode(err))
	}
}
