package comms

import (
	"encoding/json"

	"github.com/CodedInternet/goshooter/onboard"
)

type StatePayload struct {
	onboard.ShooterState
	Input    onboard.InputSnapshot `json:"input"`
	Stations int                   `json:"stations"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

func mustMarshal(v interface{}) []byte {
	msg, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return msg
}
