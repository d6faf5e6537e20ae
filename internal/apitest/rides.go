package apitest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Location 上下车地点
type Location struct {
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Ride 行程
type Ride struct {
	ID              string    `json:"id"`
	RiderID         string    `json:"riderId"`
	DriverID        string    `json:"driverId,omitempty"`
	PickupLocation  Location  `json:"pickupLocation"`
	DropoffLocation Location  `json:"dropoffLocation"`
	Status          string    `json:"status"`
	Fare            float64   `json:"fare"`
	Rating          int       `json:"rating,omitempty"`
	Comment         string    `json:"comment,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (r *Ride) active() bool {
	switch r.Status {
	case "PENDING", "ACCEPTED", "ON_ROUTE", "ARRIVED":
		return true
	}
	return false
}

// SetRideStatus 修改行程状态，模拟司机端推进行程
func (s *Server) SetRideStatus(id, status string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rides := range s.rides {
		for _, r := range rides {
			if r.ID == id {
				r.Status = status
				r.UpdatedAt = time.Now().UTC()
				return true
			}
		}
	}
	return false
}

func (s *Server) ridesOf(c *gin.Context) []*Ride {
	return s.rides[c.GetString("email")]
}

func (s *Server) findRide(c *gin.Context, id string) *Ride {
	for _, r := range s.ridesOf(c) {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (s *Server) rideHistory(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rides := s.ridesOf(c)
	if len(rides) == 0 {
		// 没有行程时服务端返回 null
		c.JSON(http.StatusOK, gin.H{"data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rides})
}

func (s *Server) activeRide(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.ridesOf(c) {
		if r.active() {
			c.JSON(http.StatusOK, gin.H{"data": r})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"data": nil})
}

func (s *Server) rideDetail(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.findRide(c, c.Param("id"))
	if r == nil {
		bad(c, http.StatusNotFound, "Ride not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": r})
}

func (s *Server) requestRide(c *gin.Context) {
	var req struct {
		PickupLocation  *Location `json:"pickupLocation" binding:"required"`
		DropoffLocation *Location `json:"dropoffLocation" binding:"required"`
		VehicleType     string    `json:"vehicleType"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bad(c, http.StatusBadRequest, "pickupLocation and dropoffLocation are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.ridesOf(c) {
		if r.active() {
			bad(c, http.StatusConflict, "You already have an active ride")
			return
		}
	}
	now := time.Now().UTC()
	acc := s.account(c)
	id, _ := acc.user["id"].(string)
	r := &Ride{
		ID:              uuid.NewString(),
		RiderID:         id,
		PickupLocation:  *req.PickupLocation,
		DropoffLocation: *req.DropoffLocation,
		Status:          "PENDING",
		Fare:            12.5,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	email := c.GetString("email")
	s.rides[email] = append(s.rides[email], r)
	c.JSON(http.StatusCreated, gin.H{"data": r})
}

func (s *Server) cancelRide(c *gin.Context) {
	var req struct {
		RideID string `json:"rideId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bad(c, http.StatusBadRequest, "rideId is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.findRide(c, req.RideID)
	if r == nil {
		bad(c, http.StatusNotFound, "Ride not found")
		return
	}
	if !r.active() {
		bad(c, http.StatusBadRequest, "Ride cannot be cancelled")
		return
	}
	r.Status = "CANCELLED"
	r.UpdatedAt = time.Now().UTC()
	c.JSON(http.StatusOK, gin.H{"data": r})
}

func (s *Server) rateRide(c *gin.Context) {
	var req struct {
		Rating  int    `json:"rating" binding:"required,min=1,max=5"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bad(c, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.findRide(c, c.Param("id"))
	if r == nil {
		bad(c, http.StatusNotFound, "Ride not found")
		return
	}
	if r.Status != "COMPLETED" {
		bad(c, http.StatusBadRequest, "Only completed rides can be rated")
		return
	}
	r.Rating, r.Comment = req.Rating, req.Comment
	r.UpdatedAt = time.Now().UTC()
	c.JSON(http.StatusOK, gin.H{"data": r})
}
