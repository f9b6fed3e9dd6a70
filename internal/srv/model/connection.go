package model

// Connection is the state of a link to an external collaborator.
type Connection int8

const (
	DISCONNECTED_CONNECTION Connection = iota
	CONNECTING_CONNECTION
	CONNECTED_CONNECTION
	ERROR_CONNECTION
)

func (c Connection) String() string {
	switch c {
	case DISCONNECTED_CONNECTION:
		return "disconnected"
	case CONNECTING_CONNECTION:
		return "connecting"
	case CONNECTED_CONNECTION:
		return "connected"
	case ERROR_CONNECTION:
		return "error"
	}
	return "unknown"
}

// Connectivity groups every link shown on the status bar.
type Connectivity struct {
	Wifi       bool       `json:"wifi"`
	Mqtt       Connection `json:"mqtt"`
	Lighting   Connection `json:"lighting"`
	Climate    Connection `json:"climate"`
	Controller bool       `json:"controller"`
}
