package model

import "time"

// Group is the external-facing shape of a joined WhatsApp group.
type Group struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Participants int        `json:"participants"`
	Description  string     `json:"description"`
	Creation     *time.Time `json:"creation"`
}

// ConnectionStatus is process-lifetime session state, never persisted.
type ConnectionStatus struct {
	IsConnected bool   `json:"isConnected"`
	QR          string `json:"qr"`
}
