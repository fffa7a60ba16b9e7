package store

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Amaan-N-K/suitemate/backend/internal/user"
)

// ============================================================================
// Record Helpers
// ============================================================================

func getStringFromRecord(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func getIntFromRecord(record *neo4j.Record, key string) int {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0
	}
	if i, ok := val.(int64); ok {
		return int(i)
	}
	if i, ok := val.(int); ok {
		return i
	}
	return 0
}

func getBoolFromRecord(record *neo4j.Record, key string) bool {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return false
	}
	if b, ok := val.(bool); ok {
		return b
	}
	return false
}

// recordToUser maps a row returned by userProjection onto a user.Record
func recordToUser(record *neo4j.Record) user.Record {
	return user.Record{
		ID:              getIntFromRecord(record, "id"),
		Name:            getStringFromRecord(record, "name"),
		Username:        getStringFromRecord(record, "username"),
		Contact:         getStringFromRecord(record, "contact"),
		Location:        getStringFromRecord(record, "location"),
		Age:             getIntFromRecord(record, "age"),
		Gender:          getStringFromRecord(record, "gender"),
		GenderPrefCares: getBoolFromRecord(record, "gender_pref"),
		Rent: user.RentRange{
			Low:  getIntFromRecord(record, "rent_low"),
			High: getIntFromRecord(record, "rent_high"),
		},
		NumRoommates: getIntFromRecord(record, "num_roommates"),
		PetsOK:       getBoolFromRecord(record, "pets"),
		SmokingOK:    getBoolFromRecord(record, "smoking"),
		GuestsOK:     getBoolFromRecord(record, "guests"),
		Cleanliness:  getIntFromRecord(record, "cleanliness"),
		Noise:        getIntFromRecord(record, "noise"),
	}
}

// userParams flattens a user into query parameters matching userProjection
func userParams(u user.Record) map[string]interface{} {
	return map[string]interface{}{
		"id":            int64(u.ID),
		"name":          u.Name,
		"username":      u.Username,
		"contact":       u.Contact,
		"location":      u.Location,
		"age":           int64(u.Age),
		"gender":        u.Gender,
		"gender_pref":   u.GenderPrefCares,
		"rent_low":      int64(u.Rent.Low),
		"rent_high":     int64(u.Rent.High),
		"num_roommates": int64(u.NumRoommates),
		"pets":          u.PetsOK,
		"smoking":       u.SmokingOK,
		"guests":        u.GuestsOK,
		"cleanliness":   int64(u.Cleanliness),
		"noise":         int64(u.Noise),
	}
}
