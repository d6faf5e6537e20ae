package onboarding

import (
	"context"
	"strconv"

	"github.com/kochabx/blaze/core/validator"
	"github.com/kochabx/blaze/errors"
	transport "github.com/kochabx/blaze/transport/http"
)

const (
	pathStatus        = "/onboarding/status"
	pathPersonal      = "/onboarding/personal"
	pathDriver        = "/onboarding/driver"
	pathVehicle       = "/onboarding/vehicle"
	pathManufacturers = "/vehicles/manufacturers"
)

func modelsPath(manufacturerID string) string {
	return transport.Path("vehicles", "manufacturers", manufacturerID, "models")
}

// Client 司机入驻接口，所有响应都包在 {data: ...} 中
type Client struct {
	http *transport.Client
}

func New(c *transport.Client) *Client {
	return &Client{http: c}
}

// Status 获取入驻进度
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var resp transport.Envelope[*Status]
	if err := c.http.Get(ctx, pathStatus, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return &Status{CurrentStep: int(StepPersonal)}, nil
	}
	return resp.Data, nil
}

// SubmitPersonal 提交个人信息
func (c *Client) SubmitPersonal(ctx context.Context, info PersonalInfo) (*PersonalUser, error) {
	if err := validator.Validate.StructCtx(ctx, info); err != nil {
		return nil, err
	}

	var resp transport.Envelope[struct {
		User *PersonalUser `json:"user"`
	}]
	if err := c.http.Post(ctx, pathPersonal, info, &resp); err != nil {
		return nil, err
	}
	return resp.Data.User, nil
}

// SubmitDriver 以 multipart 提交驾照号和照片
func (c *Client) SubmitDriver(ctx context.Context, info DriverInfo) (*Driver, error) {
	if err := validator.Validate.StructCtx(ctx, info); err != nil {
		return nil, err
	}

	form := transport.NewForm().
		Field("licenseNumber", info.LicenseNumber).
		File("profilePhoto", named(info.ProfilePhoto, "profile-photo.jpg")).
		File("licensePhoto", named(info.LicensePhoto, "license-photo.jpg"))

	var resp transport.Envelope[struct {
		Driver *Driver `json:"driver"`
	}]
	if _, err := c.http.Do(ctx, transport.NewMultipartRequest(pathDriver, form), &resp); err != nil {
		return nil, err
	}
	return resp.Data.Driver, nil
}

// SubmitVehicle 以 multipart 提交车辆信息和照片
func (c *Client) SubmitVehicle(ctx context.Context, info VehicleInfo) (*Vehicle, error) {
	if err := validator.Validate.StructCtx(ctx, info); err != nil {
		return nil, err
	}

	form := transport.NewForm().
		Field("vehicleYear", strconv.Itoa(info.Year)).
		Field("modelId", info.ModelID).
		Field("plateNumber", info.PlateNumber).
		Field("vehicleColor", info.Color).
		File("exteriorPhoto", named(info.ExteriorPhoto, "vehicle-exterior.jpg")).
		File("interiorPhoto", named(info.InteriorPhoto, "vehicle-interior.jpg"))

	var resp transport.Envelope[struct {
		Vehicle *Vehicle `json:"vehicle"`
	}]
	if _, err := c.http.Do(ctx, transport.NewMultipartRequest(pathVehicle, form), &resp); err != nil {
		return nil, err
	}
	return resp.Data.Vehicle, nil
}

// Manufacturers 车辆制造商列表
func (c *Client) Manufacturers(ctx context.Context) ([]Manufacturer, error) {
	var resp transport.Envelope[[]Manufacturer]
	if err := c.http.Get(ctx, pathManufacturers, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Models 某制造商的车型列表
func (c *Client) Models(ctx context.Context, manufacturerID string) ([]Model, error) {
	if manufacturerID == "" {
		return nil, errors.Validation("manufacturer id is required")
	}

	var resp transport.Envelope[[]Model]
	if err := c.http.Get(ctx, modelsPath(manufacturerID), &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// named 文件没有名字时使用默认文件名
func named(f *transport.File, name string) *transport.File {
	if f == nil || f.Name != "" {
		return f
	}
	cp := *f
	cp.Name = name
	return &cp
}
