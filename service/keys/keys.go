// Package keys 集中定义服务端状态缓存的 key，失效按前缀进行。
package keys

import "github.com/kochabx/blaze/cache"

// Auth
func Auth() cache.Key        { return cache.K("auth") }
func AuthUser() cache.Key    { return cache.K("auth", "user") }
func AuthProfile() cache.Key { return cache.K("auth", "profile") }
func AuthStatus() cache.Key  { return cache.K("auth", "status") }

// Rides
func Rides() cache.Key               { return cache.K("rides") }
func RideHistory() cache.Key         { return cache.K("rides", "history") }
func ActiveRide() cache.Key          { return cache.K("rides", "active") }
func RideDetail(id string) cache.Key { return cache.K("rides", "detail", id) }

// Onboarding
func Onboarding() cache.Key       { return cache.K("onboarding") }
func OnboardingStatus() cache.Key { return cache.K("onboarding", "status") }

// Vehicles
func Manufacturers() cache.Key                 { return cache.K("manufacturers") }
func ManufacturerList() cache.Key              { return cache.K("manufacturers", "list") }
func Models() cache.Key                        { return cache.K("models") }
func ModelsOf(manufacturerID string) cache.Key { return cache.K("models", manufacturerID) }
