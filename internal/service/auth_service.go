package service

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/linkablog/internal/db"
	"github.com/xlzd/gotp"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailExists          = errors.New("email already exists")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidPassword      = errors.New("invalid password")
	ErrAlreadyVerified      = errors.New("user already verified")
	ErrVerificationNotFound = errors.New("invalid verification credentials")
	ErrCodeExpired          = errors.New("reset code has expired")
	ErrPasswordMismatch     = errors.New("passwords do not match")
)

// 找回密码验证码的有效窗口
const resetCodeTTL = 30 * time.Minute

// newResetCode 每次使用随机密钥生成 6 位验证码，避免并发请求拿到相同验证码。
func newResetCode() string {
	return gotp.NewDefaultTOTP(gotp.RandomSecret(16)).Now()
}

// AuthService 负责注册、登录、邮箱验证与密码找回/重置。
type AuthService struct {
	db      *gorm.DB
	mailer  Mailer
	tokens  *TokenService
	baseURL string
}

// SignUpInput represents fields accepted on sign-up.
type SignUpInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// ResetPasswordInput represents fields accepted on password reset.
type ResetPasswordInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	Code            string
}

// NewAuthService creates an AuthService instance.
func NewAuthService(gdb *gorm.DB, mailer Mailer, tokens *TokenService, baseURL string) *AuthService {
	return &AuthService{db: gdb, mailer: mailer, tokens: tokens, baseURL: baseURL}
}

// SignUp 创建新用户并签发一条邮箱验证凭证。
// 验证邮件发送失败只记录日志，不回滚注册。
func (s *AuthService) SignUp(input SignUpInput) (*db.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := db.User{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Password:  string(hashed),
		Role:      db.RoleRWXUser,
	}
	verID := uuid.New().String()

	// 依赖 email 唯一约束拒绝重复注册，避免先查后插的竞态
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			if isDuplicateEmail(err) {
				return ErrEmailExists
			}
			return err
		}
		return tx.Create(&db.Authorize{Email: user.Email, VerID: verID}).Error
	}); err != nil {
		return nil, err
	}

	if s.mailer != nil {
		body := fmt.Sprintf("Welcome! Verify your account by posting your email to %s/linka-blog/auth/verify?ver_id=%s", s.baseURL, verID)
		if err := s.mailer.Send(user.Email, "Verify your account", body); err != nil {
			log.Printf("failed to send verification email to %s: %v", user.Email, err)
		}
	}

	return &user, nil
}

// isDuplicateEmail 识别 email 唯一约束冲突。
func isDuplicateEmail(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed: users.email")
}

// Login 校验凭证，累计登录次数并签发访问令牌。
func (s *AuthService) Login(email, password string) (string, *db.User, error) {
	var user db.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrUserNotFound
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidPassword
	}

	now := time.Now()
	user.LoginCount++
	user.LastLoggedIn = &now
	if err := s.db.Model(&user).Updates(map[string]interface{}{
		"login_count":    user.LoginCount,
		"last_logged_in": now,
	}).Error; err != nil {
		return "", nil, err
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return "", nil, err
	}
	return token, &user, nil
}

// Verify 核对验证凭证，标记用户已验证并删除凭证，两者在同一事务中提交。
func (s *AuthService) Verify(email, verID string) error {
	var user db.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.Verified {
		return ErrAlreadyVerified
	}

	var authorize db.Authorize
	if err := s.db.Where("email = ? AND ver_id = ?", email, verID).First(&authorize).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVerificationNotFound
		}
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&db.User{}).Where("id = ?", user.ID).Update("verified", true).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&authorize).Error
	})
}

// ForgotPassword 生成 6 位验证码，覆盖旧凭证并发送邮件。
func (s *AuthService) ForgotPassword(email string) error {
	var user db.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	code := newResetCode()

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("email = ? AND code <> ''", email).Delete(&db.Authorize{}).Error; err != nil {
			return err
		}
		return tx.Create(&db.Authorize{Email: email, Code: code}).Error
	}); err != nil {
		return err
	}

	if s.mailer != nil {
		body := fmt.Sprintf("Your password reset code is %s. It expires in 30 minutes.", code)
		if err := s.mailer.Send(email, "Password reset", body); err != nil {
			log.Printf("failed to send reset email to %s: %v", email, err)
		}
	}

	return nil
}

// ResetPassword 核对验证码并替换密码哈希。过期验证码同样会被删除后再报错。
func (s *AuthService) ResetPassword(input ResetPasswordInput) error {
	if input.Password != input.ConfirmPassword {
		return ErrPasswordMismatch
	}

	var authorize db.Authorize
	if err := s.db.Where("email = ? AND code = ?", input.Email, input.Code).First(&authorize).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVerificationNotFound
		}
		return err
	}

	if time.Since(authorize.CreatedAt) > resetCodeTTL {
		if err := s.db.Unscoped().Delete(&authorize).Error; err != nil {
			return err
		}
		return ErrCodeExpired
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&db.User{}).Where("email = ?", input.Email).Update("password", string(hashed)).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&authorize).Error
	})
}
