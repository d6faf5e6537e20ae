package apitest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type session struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	User         gin.H  `json:"user"`
	RequiresOTP  bool   `json:"requiresOTP"`
}

func (s *Server) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bad(c, http.StatusBadRequest, "email and password are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[req.Email]
	if !ok || acc.password != req.Password {
		bad(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if acc.requiresOTP {
		resp := session{User: acc.user, RequiresOTP: true}
		s.respondLogin(c, resp)
		return
	}

	access, refresh := s.issue(req.Email)
	s.respondLogin(c, session{Token: access, RefreshToken: refresh, User: acc.user})
}

func (s *Server) respondLogin(c *gin.Context, resp session) {
	if s.WrapLogin {
		c.JSON(http.StatusOK, gin.H{"statusCode": "200", "message": "Login successful", "data": resp})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) verifyOTP(c *gin.Context) {
	var req struct {
		PhoneNumber string `json:"phoneNumber"`
		OTP         string `json:"otp"`
	}
	_ = c.ShouldBindJSON(&req)

	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.phones[req.PhoneNumber]
	if !ok || req.OTP != OTP {
		bad(c, http.StatusBadRequest, "Invalid OTP")
		return
	}
	access, refresh := s.issue(email)
	c.JSON(http.StatusOK, gin.H{
		"statusCode": "200",
		"message":    "OTP verified",
		"data":       session{Token: access, RefreshToken: refresh, User: s.accounts[email].user},
	})
}

func (s *Server) resendOTP(c *gin.Context) {
	var req struct {
		PhoneNumber string `json:"phoneNumber" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bad(c, http.StatusBadRequest, "phoneNumber is required")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP sent"})
}

func (s *Server) refreshToken(c *gin.Context) {
	s.refreshes.Add(1)
	if s.BeforeRefresh != nil {
		s.BeforeRefresh()
	}
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = c.ShouldBindJSON(&req)

	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.refresh[req.RefreshToken]
	if !ok {
		bad(c, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	access, refresh := s.issue(email)
	if !s.RotateRefresh {
		delete(s.refresh, refresh)
		c.JSON(http.StatusOK, gin.H{"token": access})
		return
	}
	delete(s.refresh, req.RefreshToken)
	c.JSON(http.StatusOK, gin.H{"token": access, "refreshToken": refresh})
}

func (s *Server) logout(c *gin.Context) {
	s.logouts.Add(1)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (s *Server) profile(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, s.account(c).user)
}

func (s *Server) updateProfile(c *gin.Context) {
	var patch gin.H
	if err := c.ShouldBindJSON(&patch); err != nil {
		bad(c, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.account(c).user
	for k, v := range patch {
		if k == "id" || k == "role" {
			continue
		}
		user[k] = v
	}
	c.JSON(http.StatusOK, user)
}
