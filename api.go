package main

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/CodedInternet/goshooter/onboard"
)

type ShooterStatePayload struct {
	onboard.ShooterState
	Stations int `json:"stations"`
}

func (s *ShooterStatePayload) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func newShooterStatePayload() *ShooterStatePayload {
	return &ShooterStatePayload{
		ShooterState: ENV.Shooter.State(),
		Stations:     ENV.Conductor.Clients(),
	}
}

// GetShooterState reports mode, stored and applied voltage and any output fault.
func GetShooterState(w http.ResponseWriter, r *http.Request) {
	render.Render(w, r, newShooterStatePayload())
}

func ToggleShooterMode(w http.ResponseWriter, r *http.Request) {
	ENV.Shooter.ToggleMode()
	render.Render(w, r, newShooterStatePayload())
}

// ReconfigureShooter reruns the motor controller configuration, used after clearing a fault.
func ReconfigureShooter(w http.ResponseWriter, r *http.Request) {
	if err := ENV.Shooter.Reconfigure(); err != nil {
		render.Render(w, r, ErrUnavailable(err))
		return
	}

	render.Render(w, r, newShooterStatePayload())
}
