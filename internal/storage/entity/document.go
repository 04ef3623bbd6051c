package entity

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrDuplicate is returned when a document collides with a stored one.
var ErrDuplicate = errors.New("document already exists")

// Document is one JSON document in a collection of the document store.
type Document struct {
	ID           string    `db:"id" json:"$id"`
	DatabaseID   string    `db:"database_id" json:"$databaseId"`
	CollectionID string    `db:"collection_id" json:"$collectionId"`
	DataRaw      []byte    `db:"data" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"$createdAt"`
}

// Decode unmarshals the document body into v.
func (d *Document) Decode(v any) error {
	if len(d.DataRaw) == 0 {
		return json.Unmarshal([]byte("{}"), v)
	}
	return json.Unmarshal(d.DataRaw, v)
}

// Profile is the body stored for a signed-in user.
type Profile struct {
	Username   string `json:"username"`
	ProfileURL string `json:"profileURL"`
	UserID     string `json:"userID"`
}

// DailyEntry is the body stored per day. Key casing and the string-typed
// fields follow what the dashboard's collection already holds.
type DailyEntry struct {
	Date           time.Time `json:"Date"`
	StepCount      string    `json:"stepCount"`
	Height         float64   `json:"Height"`
	Weight         float64   `json:"Weight"`
	MenstrualCycle string    `json:"menstrualCycle"`
	HeartRate      float64   `json:"HeartRate"`
	GlucoseLevel   float64   `json:"glucoseLevel"`
	BodyFat        float64   `json:"bodyFat"`
	BloodPressure  string    `json:"bloodPressure"`
}
