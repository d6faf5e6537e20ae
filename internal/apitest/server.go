// Package apitest 提供一个内存版的远端 API，供各包测试使用。
package apitest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Password 默认账号的密码，OTP 为固定验证码
const (
	Password = "secret"
	OTP      = "123456"
)

type account struct {
	password    string
	user        gin.H
	requiresOTP bool
	onboarding  *onboarding
}

type failure struct {
	status int
	body   gin.H
	left   int
}

// Server 内存版远端 API
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	accounts map[string]*account // email -> account
	phones   map[string]string   // phone -> email
	access   map[string]string   // access token -> email
	refresh  map[string]string   // refresh token -> email
	rides    map[string][]*Ride  // email -> rides
	failures map[string]*failure
	hits     map[string]int

	// WrapLogin 为 true 时登录响应包在 {data: ...} 中
	WrapLogin bool
	// RotateRefresh 为 false 时刷新只返回新的 access token
	RotateRefresh bool
	// BeforeRefresh 非空时在处理刷新请求前调用，测试用它把刷新挂起
	BeforeRefresh func()

	refreshes atomic.Int32
	logouts   atomic.Int32
}

// New 启动服务，测试结束时关闭
func New(t testing.TB) *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		accounts:      make(map[string]*account),
		phones:        make(map[string]string),
		access:        make(map[string]string),
		refresh:       make(map[string]string),
		rides:         make(map[string][]*Ride),
		failures:      make(map[string]*failure),
		hits:          make(map[string]int),
		RotateRefresh: true,
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// BaseURL 与 URL 相同，便于和配置里的 api.base_url 对应
func (s *Server) BaseURL() string {
	return s.URL
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.record)

	a := r.Group("/auth")
	a.POST("/login", s.login)
	a.POST("/verify-otp", s.verifyOTP)
	a.POST("/resend-otp", s.resendOTP)
	a.POST("/refresh", s.refreshToken)
	a.POST("/logout", s.authorize, s.logout)

	u := r.Group("/user", s.authorize)
	u.GET("/profile", s.profile)
	u.POST("/profile", s.updateProfile)

	o := r.Group("/onboarding", s.authorize)
	o.GET("/status", s.onboardingStatus)
	o.POST("/personal", s.submitPersonal)
	o.POST("/driver", s.submitDriver)
	o.POST("/vehicle", s.submitVehicle)

	v := r.Group("/vehicles", s.authorize)
	v.GET("/manufacturers", s.manufacturers)
	v.GET("/manufacturers/:id/models", s.models)

	rd := r.Group("/rides", s.authorize)
	rd.GET("/history", s.rideHistory)
	rd.GET("/active", s.activeRide)
	rd.GET("/:id", s.rideDetail)
	rd.POST("/request", s.requestRide)
	rd.POST("/cancel", s.cancelRide)
	rd.POST("/:id/rate", s.rateRide)
	return r
}

// record 统计请求次数并注入预设的失败
func (s *Server) record(c *gin.Context) {
	key := c.Request.Method + " " + c.Request.URL.Path

	s.mu.Lock()
	s.hits[key]++
	f, ok := s.failures[key]
	if ok {
		f.left--
		if f.left <= 0 {
			delete(s.failures, key)
		}
	}
	s.mu.Unlock()

	if ok {
		c.AbortWithStatusJSON(f.status, f.body)
		return
	}
	c.Next()
}

// authorize 校验 bearer token
func (s *Server) authorize(c *gin.Context) {
	token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	s.mu.Lock()
	email, found := s.access[token]
	s.mu.Unlock()
	if !ok || !found {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}
	c.Set("email", email)
	c.Next()
}

// AddUser 注册账号，user 为登录和 /user/profile 返回的用户对象
func (s *Server) AddUser(email, password string, user gin.H) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := gin.H{"email": email}
	for k, v := range user {
		u[k] = v
	}
	if _, ok := u["id"]; !ok {
		u["id"] = uuid.NewString()
	}
	acc := &account{password: password, user: u, onboarding: &onboarding{step: 1}}
	if phone, ok := u["phone"].(string); ok {
		s.phones[phone] = email
	}
	s.accounts[email] = acc
}

// AddRider 注册一个乘客账号
func (s *Server) AddRider(email string) {
	s.AddUser(email, Password, gin.H{"firstName": "Ada", "lastName": "Lovelace", "role": "RIDER", "rating": 4.9})
}

// AddDriver 注册一个未完成入驻的司机账号
func (s *Server) AddDriver(email string) {
	s.AddUser(email, Password, gin.H{
		"firstName":           "Grace",
		"lastName":            "Hopper",
		"phone":               "+15550100",
		"role":                "DRIVER",
		"onboardingCompleted": false,
		"onboardingStep":      1,
	})
}

// RequireOTP 登录该账号时要求 OTP
func (s *Server) RequireOTP(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc, ok := s.accounts[email]; ok {
		acc.requiresOTP = true
	}
}

// Issue 直接签发一对 token
func (s *Server) Issue(email string) (access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issue(email)
}

func (s *Server) issue(email string) (string, string) {
	access, refresh := "at-"+uuid.NewString(), "rt-"+uuid.NewString()
	s.access[access] = email
	s.refresh[refresh] = email
	return access, refresh
}

// ExpireAccessTokens 让所有 access token 失效，refresh token 仍可用
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.access)
}

// RevokeRefreshTokens 让所有 refresh token 失效
func (s *Server) RevokeRefreshTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.refresh)
}

// FailNext 让 method path 的后 n 次请求返回 status 和 body
func (s *Server) FailNext(method, path string, status, n int, body gin.H) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = &failure{status: status, body: body, left: n}
}

// Hits 返回 method path 收到的请求数
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}

// Refreshes 返回刷新接口被调用的次数
func (s *Server) Refreshes() int {
	return int(s.refreshes.Load())
}

// Logouts 返回登出接口被调用的次数
func (s *Server) Logouts() int {
	return int(s.logouts.Load())
}

func (s *Server) account(c *gin.Context) *account {
	return s.accounts[c.GetString("email")]
}

func bad(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"statusCode": status, "message": msg})
}
