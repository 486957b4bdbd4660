package main

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StationHandler upgrades a driver station and hands it to the conductor until it disconnects.
func StationHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Print("upgrade:", err)
		return
	}

	log.Printf("driver station connected from %s", r.RemoteAddr)
	ENV.Conductor.Attach(conn)
	log.Printf("driver station %s disconnected", r.RemoteAddr)
}
