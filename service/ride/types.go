package ride

import "time"

// Status 行程状态
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusOnRoute   Status = "ON_ROUTE"
	StatusArrived   Status = "ARRIVED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// Active 行程是否仍在进行
func (s Status) Active() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusOnRoute, StatusArrived:
		return true
	}
	return false
}

// Location 地点
type Location struct {
	Address   string  `json:"address" validate:"required"`
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

// Ride 行程
type Ride struct {
	ID              string    `json:"id"`
	RiderID         string    `json:"riderId"`
	DriverID        string    `json:"driverId,omitempty"`
	PickupLocation  Location  `json:"pickupLocation"`
	DropoffLocation Location  `json:"dropoffLocation"`
	Status          Status    `json:"status"`
	Fare            float64   `json:"fare"`
	Distance        *float64  `json:"distance,omitempty"`
	Duration        *float64  `json:"duration,omitempty"`
	Rating          int       `json:"rating,omitempty"`
	Comment         string    `json:"comment,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// RequestInput 叫车请求
type RequestInput struct {
	PickupLocation  *Location `json:"pickupLocation" validate:"required"`
	DropoffLocation *Location `json:"dropoffLocation" validate:"required"`
	VehicleType     string    `json:"vehicleType,omitempty"`
}

// Rating 评价
type Rating struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment,omitempty" validate:"max=500"`
}
