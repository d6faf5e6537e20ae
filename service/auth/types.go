package auth

import (
	"bytes"
	"encoding/json"
	"time"
)

// Role 用户角色
type Role string

const (
	RoleRider  Role = "RIDER"
	RoleDriver Role = "DRIVER"
)

// Gender 性别
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

// ApprovalStatus 司机审核状态
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// Vehicle 司机资料中的车辆摘要
type Vehicle struct {
	Model       string `json:"model"`
	Color       string `json:"color"`
	PlateNumber string `json:"plateNumber"`
}

// User 当前用户。乘客和司机共用一个结构，按 Role 区分有效字段。
type User struct {
	ID          string     `json:"id"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Phone       string     `json:"phone,omitempty"`
	Email       string     `json:"email"`
	Avatar      string     `json:"avatar,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
	IsVerified  bool       `json:"isVerified"`
	Gender      Gender     `json:"gender,omitempty"`
	DateOfBirth string     `json:"dateOfBirth,omitempty"`
	Role        Role       `json:"role"`

	// rider
	DefaultPaymentMethodID string  `json:"defaultPaymentMethodId,omitempty"`
	Rating                 float64 `json:"rating,omitempty"`

	// driver
	LicenseNumber       string         `json:"licenseNumber,omitempty"`
	Vehicle             *Vehicle       `json:"vehicle,omitempty"`
	IsOnline            bool           `json:"isOnline,omitempty"`
	ApprovalStatus      ApprovalStatus `json:"approvalStatus,omitempty"`
	OnboardingCompleted *bool          `json:"onboardingCompleted,omitempty"`
	OnboardingStep      int            `json:"onboardingStep,omitempty"`
}

func (u *User) IsDriver() bool { return u != nil && u.Role == RoleDriver }
func (u *User) IsRider() bool  { return u != nil && u.Role == RoleRider }

// NeedsOnboarding 司机且明确标记为未完成入驻
func (u *User) NeedsOnboarding() bool {
	return u.IsDriver() && u.OnboardingCompleted != nil && !*u.OnboardingCompleted
}

// NextOnboardingStep 入驻应从哪一步继续，未知时为 1
func (u *User) NextOnboardingStep() int {
	if u == nil || u.OnboardingStep < 1 {
		return 1
	}
	return u.OnboardingStep
}

// FullName 姓名
func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// ProfilePatch 资料的部分更新，nil 字段不发送
type ProfilePatch struct {
	FirstName   *string `json:"firstName,omitempty" validate:"omitempty,min=1"`
	LastName    *string `json:"lastName,omitempty" validate:"omitempty,min=1"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,e164"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	Avatar      *string `json:"avatar,omitempty" validate:"omitempty,url"`
	Gender      *Gender `json:"gender,omitempty" validate:"omitempty,oneof=MALE FEMALE OTHER"`
	DateOfBirth *string `json:"dateOfBirth,omitempty"`
}

// Merge 返回应用了 patch 的副本
func (u User) Merge(p ProfilePatch) User {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	if p.Gender != nil {
		u.Gender = *p.Gender
	}
	if p.DateOfBirth != nil {
		u.DateOfBirth = *p.DateOfBirth
	}
	return u
}

// Credentials 登录凭据
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session 登录结果
type Session struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	User         *User  `json:"user"`
	RequiresOTP  bool   `json:"requiresOTP"`
}

// OTPRequest 验证码校验请求
type OTPRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	OTP         string `json:"otp" validate:"required,numeric"`
}

// StatusCode 响应体中的 statusCode，服务端可能返回字符串或数字
type StatusCode string

func (s *StatusCode) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = StatusCode(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = StatusCode(n.String())
	return nil
}

// OTPResponse 验证码接口的完整响应，原样返回给调用方
type OTPResponse struct {
	StatusCode StatusCode `json:"statusCode"`
	Message    string     `json:"message"`
	Data       Session    `json:"data"`
}
