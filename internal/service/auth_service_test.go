package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/linkablog/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stubMailer struct {
	sent []struct {
		To      string
		Subject string
		Body    string
	}
	fail bool
}

func (m *stubMailer) Send(to, subject, body string) error {
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, struct {
		To      string
		Subject string
		Body    string
	}{to, subject, body})
	return nil
}

func setupAuthTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:auth-service-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(&db.User{}, &db.Authorize{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return gdb
}

func newAuthService(gdb *gorm.DB, mailer Mailer) *AuthService {
	tokens := NewTokenService("test-secret", time.Hour)
	return NewAuthService(gdb, mailer, tokens, "http://localhost:8080")
}

func signUpInput(email string) SignUpInput {
	return SignUpInput{
		FirstName: "my_firstname",
		LastName:  "my_lastname",
		Email:     email,
		Password:  "my_password",
	}
}

func TestAuthService_SignUpCreatesUserAndVerification(t *testing.T) {
	gdb := setupAuthTestDB(t)
	mailer := &stubMailer{}
	svc := newAuthService(gdb, mailer)

	user, err := svc.SignUp(signUpInput("a@x.com"))
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if user.Role != db.RoleRWXUser {
		t.Fatalf("expected default role rwx_user, got %q", user.Role)
	}
	if user.Verified {
		t.Fatal("expected user to start unverified")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("my_password")); err != nil {
		t.Fatal("expected stored password to be a bcrypt hash of the input")
	}

	var authorize db.Authorize
	if err := gdb.Where("email = ?", "a@x.com").First(&authorize).Error; err != nil {
		t.Fatalf("find authorize entry: %v", err)
	}
	if authorize.VerID == "" {
		t.Fatal("expected a ver_id on the verification entry")
	}

	if len(mailer.sent) != 1 {
		t.Fatalf("expected one verification email, got %d", len(mailer.sent))
	}
	if !strings.Contains(mailer.sent[0].Body, authorize.VerID) {
		t.Fatal("expected the email body to carry the ver_id")
	}
}

func TestAuthService_SignUpDuplicateEmail(t *testing.T) {
	gdb := setupAuthTestDB(t)
	svc := newAuthService(gdb, &stubMailer{})

	if _, err := svc.SignUp(signUpInput("a@x.com")); err != nil {
		t.Fatalf("first sign up: %v", err)
	}
	if _, err := svc.SignUp(signUpInput("a@x.com")); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}

	var users, entries int64
	if err := gdb.Model(&db.User{}).Where("email = ?", "a@x.com").Count(&users).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if err := gdb.Model(&db.Authorize{}).Where("email = ?", "a@x.com").Count(&entries).Error; err != nil {
		t.Fatalf("count authorize entries: %v", err)
	}
	if users != 1 || entries != 1 {
		t.Fatalf("expected rejected sign-up to leave no rows, got %d users and %d entries", users, entries)
	}
}

func TestAuthService_SignUpDuplicateEmailViaConstraint(t *testing.T) {
	gdb := setupAuthTestDB(t)
	svc := newAuthService(gdb, &stubMailer{})

	// 绕过服务直接写入用户，模拟并发注册中已抢先提交的一方
	seeded := db.User{FirstName: "my_firstname", LastName: "my_lastname", Email: "a@x.com", Password: "x"}
	if err := gdb.Create(&seeded).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	if _, err := svc.SignUp(signUpInput("a@x.com")); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists from the unique constraint, got %v", err)
	}
}

func TestAuthService_SignUpSurvivesMailFailure(t *testing.T) {
	gdb := setupAuthTestDB(t)
	svc := newAuthService(gdb, &stubMailer{fail: true})

	if _, err := svc.SignUp(signUpInput("a@x.com")); err != nil {
		t.Fatalf("sign up should not fail on mail errors: %v", err)
	}
}

func TestAuthService_Login(t *testing.T) {
	gdb := setupAuthTestDB(t)
	svc := newAuthService(gdb, &stubMailer{})

	if _, err := svc.SignUp(signUpInput("a@x.com")); err != nil {
		t.Fatalf("sign up: %v", err)
	}

	if _, _, err := svc.Login("missing@x.com", "my_password"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, _, err := svc.Login("a@x.com", "wrong"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}

	token, user, err := svc.Login("a@x.com", "my_password")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.LoginCount != 1 {
		t.Fatalf("expected loginCount 1, got %d", user.LoginCount)
	}
	if user.LastLoggedIn == nil {
		t.Fatal("expected lastLoggedIn to be stamped")
	}

	claims, err := svc.tokens.Parse(token)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != user.Role {
		t.Fatalf("token claims mismatch: %+v", claims)
	}

	if _, _, err := svc.Login("a@x.com", "my_password"); err != nil {
		t.Fatalf("second login: %v", err)
	}
	var reloaded db.User
	if err := gdb.Where("email = ?", "a@x.com").First(&reloaded).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if reloaded.LoginCount != 2 {
		t.Fatalf("expected loginCount 2, got %d", reloaded.LoginCount)
	}
}

func TestAuthService_Verify(t *testing.T) {
	gdb := setupAuthTestDB(t)
	svc := newAuthService(gdb, &stubMailer{})

	if _, err := svc.SignUp(signUpInput("a@x.com")); err != nil {
		t.Fatalf("sign up: %v", err)
	}

	var authorize db.Authorize
	if err := gdb.Where("email = ?", "a@x.com").First(&authorize).Error; err != nil {
		t.Fatalf("find authorize entry: %v", err)
	}

	if err := svc.Verify("missing@x.com", authorize.VerID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := svc.Verify("a@x.com", "bogus"); !errors.Is(err, ErrVerificationNotFound) {
		t.Fatalf("expected ErrVerificationNotFound, got %v", err)
	}

	if err := svc.Verify("a@x.com", authorize.VerID); err != nil {
		t.Fatalf("verify: %v", err)
	}

	var user db.User
	if err := gdb.Where("email = ?", "a@x.com").First(&user).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if !user.Verified {
		t.Fatal("expected user to be verified")
	}

	var count int64
	if err := gdb.Unscoped().Model(&db.Authorize{}).Where("email = ?", "a@x.com").Count(&count).Error; err != nil {
		t.Fatalf("count authorize entries: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected verification entry removed, found %d", count)
	}

	if err := svc.Verify("a@x.com", authorize.VerID); !errors.Is(err, ErrAlreadyVerified) {
		t.Fatalf("expected ErrAlreadyVerified, got %v", err)
	}
}

func TestAuthService_ForgotPassword(t *testing.T) {
	gdb := setupAuthTestDB(t)
	mailer := &stubMailer{}
	svc := newAuthService(gdb, mailer)

	if err := svc.ForgotPassword("missing@x.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if _, err := svc.SignUp(signUpInput("a@x.com")); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	mailer.sent = nil

	if err := svc.ForgotPassword("a@x.com"); err != nil {
		t.Fatalf("forgot password: %v", err)
	}

	var authorize db.Authorize
	if err := gdb.Where("email = ? AND code <> ''", "a@x.com").First(&authorize).Error; err != nil {
		t.Fatalf("find reset entry: %v", err)
	}
	if len(authorize.Code) != 6 {
		t.Fatalf("expected a 6-digit code, got %q", authorize.Code)
	}
	if len(mailer.sent) != 1 || !strings.Contains(mailer.sent[0].Body, authorize.Code) {
		t.Fatal("expected the reset code to be emailed")
	}
}

func TestNewResetCodeIsPerRequest(t *testing.T) {
	codes := make(map[string]bool)
	for i := 0; i < 5; i++ {
		code := newResetCode()
		if len(code) != 6 {
			t.Fatalf("expected a 6-digit code, got %q", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("expected numeric code, got %q", code)
			}
		}
		codes[code] = true
	}

	// 共享生成器会在同一时间步内返回完全相同的验证码
	if len(codes) == 1 {
		t.Fatal("expected independently generated codes, got identical values")
	}
}

func TestAuthService_ResetPassword(t *testing.T) {
	gdb := setupAuthTestDB(t)
	svc := newAuthService(gdb, &stubMailer{})

	if _, err := svc.SignUp(signUpInput("a@x.com")); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if err := svc.ForgotPassword("a@x.com"); err != nil {
		t.Fatalf("forgot password: %v", err)
	}

	var authorize db.Authorize
	if err := gdb.Where("email = ? AND code <> ''", "a@x.com").First(&authorize).Error; err != nil {
		t.Fatalf("find reset entry: %v", err)
	}

	mismatch := ResetPasswordInput{Email: "a@x.com", Password: "new_password", ConfirmPassword: "other", Code: authorize.Code}
	if err := svc.ResetPassword(mismatch); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}

	badCode := ResetPasswordInput{Email: "a@x.com", Password: "new_password", ConfirmPassword: "new_password", Code: "000000x"}
	if err := svc.ResetPassword(badCode); !errors.Is(err, ErrVerificationNotFound) {
		t.Fatalf("expected ErrVerificationNotFound, got %v", err)
	}

	ok := ResetPasswordInput{Email: "a@x.com", Password: "new_password", ConfirmPassword: "new_password", Code: authorize.Code}
	if err := svc.ResetPassword(ok); err != nil {
		t.Fatalf("reset password: %v", err)
	}

	if _, _, err := svc.Login("a@x.com", "my_password"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected old password to be rejected, got %v", err)
	}
	if _, _, err := svc.Login("a@x.com", "new_password"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}

	var count int64
	if err := gdb.Unscoped().Model(&db.Authorize{}).Where("email = ?", "a@x.com").Count(&count).Error; err != nil {
		t.Fatalf("count authorize entries: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected reset entry removed, found %d", count)
	}
}

func TestAuthService_ResetPasswordExpiredCode(t *testing.T) {
	gdb := setupAuthTestDB(t)
	svc := newAuthService(gdb, &stubMailer{})

	if _, err := svc.SignUp(signUpInput("a@x.com")); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if err := svc.ForgotPassword("a@x.com"); err != nil {
		t.Fatalf("forgot password: %v", err)
	}

	var authorize db.Authorize
	if err := gdb.Where("email = ? AND code <> ''", "a@x.com").First(&authorize).Error; err != nil {
		t.Fatalf("find reset entry: %v", err)
	}

	expired := time.Now().Add(-31 * time.Minute)
	if err := gdb.Model(&authorize).UpdateColumn("created_at", expired).Error; err != nil {
		t.Fatalf("backdate reset entry: %v", err)
	}

	input := ResetPasswordInput{Email: "a@x.com", Password: "new_password", ConfirmPassword: "new_password", Code: authorize.Code}
	if err := svc.ResetPassword(input); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired, got %v", err)
	}

	// 过期凭证作为副作用被删除
	var count int64
	if err := gdb.Unscoped().Model(&db.Authorize{}).Where("email = ? AND code <> ''", "a@x.com").Count(&count).Error; err != nil {
		t.Fatalf("count reset entries: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected expired entry removed, found %d", count)
	}

	if _, _, err := svc.Login("a@x.com", "my_password"); err != nil {
		t.Fatalf("expected original password untouched: %v", err)
	}
}
