package apitest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type onboarding struct {
	step     int
	personal gin.H
	driver   gin.H
	vehicle  gin.H
	complete bool
}

var manufacturers = []gin.H{
	{"id": "mf-toyota", "name": "Toyota"},
	{"id": "mf-honda", "name": "Honda"},
}

var models = map[string][]gin.H{
	"mf-toyota": {
		{"id": "md-corolla", "manufacturerId": "mf-toyota", "name": "Corolla", "type": "SEDAN", "seats": 4,
			"manufacturer": gin.H{"id": "mf-toyota", "name": "Toyota"}},
		{"id": "md-sienna", "manufacturerId": "mf-toyota", "name": "Sienna", "type": "VAN", "seats": 7,
			"manufacturer": gin.H{"id": "mf-toyota", "name": "Toyota"}},
	},
	"mf-honda": {
		{"id": "md-civic", "manufacturerId": "mf-honda", "name": "Civic", "type": "SEDAN", "seats": 4,
			"manufacturer": gin.H{"id": "mf-honda", "name": "Honda"}},
	},
}

func findModel(id string) gin.H {
	for _, list := range models {
		for _, m := range list {
			if m["id"] == id {
				return m
			}
		}
	}
	return nil
}

// OnboardingStep 返回账号当前的入驻步骤
func (s *Server) OnboardingStep(email string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc, ok := s.accounts[email]; ok {
		return acc.onboarding.step
	}
	return 0
}

func (s *Server) onboardingStatus(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.account(c).onboarding
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"currentStep":     o.step,
		"hasPersonalInfo": o.personal != nil,
		"hasDriverInfo":   o.driver != nil,
		"hasVehicle":      o.vehicle != nil,
		"isComplete":      o.complete,
		"user":            o.personal,
		"driver":          o.driver,
		"vehicle":         o.vehicle,
	}})
}

func (s *Server) submitPersonal(c *gin.Context) {
	var req struct {
		FirstName   string `json:"firstName" binding:"required"`
		LastName    string `json:"lastName" binding:"required"`
		Phone       string `json:"phone"`
		DateOfBirth string `json:"dateOfBirth" binding:"required"`
		Gender      string `json:"gender"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bad(c, http.StatusBadRequest, "Invalid personal information")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.account(c)
	user := gin.H{
		"id":          acc.user["id"],
		"firstName":   req.FirstName,
		"lastName":    req.LastName,
		"dateOfBirth": req.DateOfBirth,
		"gender":      req.Gender,
	}
	acc.onboarding.personal = user
	acc.onboarding.step = max(acc.onboarding.step, 2)
	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"user": user}})
}

func (s *Server) submitDriver(c *gin.Context) {
	license := c.PostForm("licenseNumber")
	profile, perr := c.FormFile("profilePhoto")
	photo, lerr := c.FormFile("licensePhoto")
	if license == "" || perr != nil || lerr != nil {
		bad(c, http.StatusBadRequest, "licenseNumber, profilePhoto and licensePhoto are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.account(c)
	driver := gin.H{
		"id":                  uuid.NewString(),
		"licenseNumber":       license,
		"profilePhoto":        "/uploads/" + profile.Filename,
		"licensePhoto":        "/uploads/" + photo.Filename,
		"onboardingCompleted": false,
		"onboardingStep":      3,
	}
	acc.onboarding.driver = driver
	acc.onboarding.step = max(acc.onboarding.step, 3)
	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"driver": driver}})
}

func (s *Server) submitVehicle(c *gin.Context) {
	year, _ := strconv.Atoi(c.PostForm("vehicleYear"))
	model := findModel(c.PostForm("modelId"))
	plate := c.PostForm("plateNumber")
	color := c.PostForm("vehicleColor")
	exterior, eerr := c.FormFile("exteriorPhoto")
	interior, ierr := c.FormFile("interiorPhoto")
	if model == nil || plate == "" || color == "" || eerr != nil || ierr != nil {
		bad(c, http.StatusBadRequest, "Invalid vehicle information")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.account(c)
	manufacturer, _ := model["manufacturer"].(gin.H)
	vehicle := gin.H{
		"id":            uuid.NewString(),
		"year":          year,
		"manufacturer":  manufacturer["name"],
		"model":         model,
		"plateNumber":   plate,
		"isActive":      false,
		"color":         color,
		"exteriorPhoto": "/uploads/" + exterior.Filename,
		"interiorPhoto": "/uploads/" + interior.Filename,
	}
	acc.onboarding.vehicle = vehicle
	acc.onboarding.complete = true
	acc.user["onboardingCompleted"] = true
	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"vehicle": vehicle}})
}

func (s *Server) manufacturers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": manufacturers})
}

func (s *Server) models(c *gin.Context) {
	list, ok := models[c.Param("id")]
	if !ok {
		bad(c, http.StatusNotFound, "Manufacturer not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}
