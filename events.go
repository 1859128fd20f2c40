package main

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
)

const (
	eventJoined = "joined"
	eventLeft   = "left"
	eventVoted  = "voted"
	eventError  = "error"
)

const errNameTaken = "name_taken"

var validate = validator.New()

// envelope is the server->client frame. Users carries the presence
// snapshot for event types that include one.
type envelope struct {
	Type    string   `json:"type"`
	Payload any      `json:"payload"`
	Users   []string `json:"users,omitempty"`
}

func (e envelope) encode() []byte {
	raw, err := json.Marshal(e)
	if err != nil {
		// All payload types below are marshalable; this is unreachable
		// for frames the server builds itself.
		return []byte(`{"type":"error","payload":"encode_failed"}`)
	}
	return raw
}

type memberPayload struct {
	Name string `json:"name"`
}

type votePayload struct {
	Name string `json:"name"`
	Vote int    `json:"vote"`
}

// joinRequest must be the first message on a connection.
type joinRequest struct {
	Name string `json:"name" validate:"required,min=1,max=32"`
}

// voteMessage is any later client message. Card values start at 1, so a
// missing or zero vote field fails validation and the frame is dropped.
type voteMessage struct {
	Vote int `json:"vote" validate:"min=1"`
}

func joinedEvent(name string, users []string) []byte {
	return envelope{Type: eventJoined, Payload: memberPayload{Name: name}, Users: users}.encode()
}

func leftEvent(name string, users []string) []byte {
	return envelope{Type: eventLeft, Payload: memberPayload{Name: name}, Users: users}.encode()
}

func votedEvent(name string, vote int, users []string) []byte {
	return envelope{Type: eventVoted, Payload: votePayload{Name: name, Vote: vote}, Users: users}.encode()
}
