package onboarding

import (
	transport "github.com/kochabx/blaze/transport/http"
)

// Gender 性别
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

// PersonalInfo 第一步：个人信息
type PersonalInfo struct {
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"dateOfBirth" validate:"required"`
	Gender      Gender `json:"gender" validate:"omitempty,oneof=MALE FEMALE OTHER"`
}

// DriverInfo 第二步：驾照与照片
type DriverInfo struct {
	LicenseNumber string          `validate:"required"`
	ProfilePhoto  *transport.File `validate:"required"`
	LicensePhoto  *transport.File `validate:"required"`
}

// VehicleInfo 第三步：车辆信息与照片
type VehicleInfo struct {
	Year           int             `validate:"required,gte=1980,lte=2100"`
	ManufacturerID string          `validate:"required"`
	ModelID        string          `validate:"required"`
	PlateNumber    string          `validate:"required"`
	Color          string          `validate:"required"`
	ExteriorPhoto  *transport.File `validate:"required"`
	InteriorPhoto  *transport.File `validate:"required"`
}

// PersonalUser 已提交的个人信息
type PersonalUser struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      Gender `json:"gender"`
}

// Driver 已提交的司机信息
type Driver struct {
	ID                  string `json:"id"`
	LicenseNumber       string `json:"licenseNumber"`
	ProfilePhoto        string `json:"profilePhoto,omitempty"`
	LicensePhoto        string `json:"licensePhoto,omitempty"`
	OnboardingCompleted bool   `json:"onboardingCompleted"`
	OnboardingStep      int    `json:"onboardingStep"`
}

// Manufacturer 车辆制造商
type Manufacturer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Model 车型
type Model struct {
	ID             string       `json:"id"`
	ManufacturerID string       `json:"manufacturerId"`
	Name           string       `json:"name"`
	Type           string       `json:"type"`
	Seats          int          `json:"seats"`
	Manufacturer   Manufacturer `json:"manufacturer"`
}

// Vehicle 已提交的车辆
type Vehicle struct {
	ID                 string `json:"id"`
	Year               int    `json:"year"`
	Manufacturer       string `json:"manufacturer"`
	Model              Model  `json:"model"`
	PlateNumber        string `json:"plateNumber"`
	IsActive           bool   `json:"isActive"`
	Color              string `json:"color"`
	ExteriorPhoto      string `json:"exteriorPhoto,omitempty"`
	InteriorPhoto      string `json:"interiorPhoto,omitempty"`
	LicenseCertificate string `json:"licenseCertificate,omitempty"`
}

// Status 入驻进度
type Status struct {
	CurrentStep     int           `json:"currentStep"`
	HasPersonalInfo bool          `json:"hasPersonalInfo"`
	HasDriverInfo   bool          `json:"hasDriverInfo"`
	HasVehicle      bool          `json:"hasVehicle"`
	IsComplete      bool          `json:"isComplete"`
	User            *PersonalUser `json:"user"`
	Driver          *Driver       `json:"driver"`
	Vehicle         *Vehicle      `json:"vehicle"`
}
