package user

import "fmt"

// RentRange is a closed monthly rent interval
type RentRange struct {
	Low  int `json:"low"`
	High int `json:"high" validate:"gtefield=Low"`
}

// Midpoint returns the floor of the interval's midpoint. Halving each bound
// first keeps the result exact for ranges whose sum would overflow an int.
func (r RentRange) Midpoint() int {
	return r.Low>>1 + r.High>>1 + r.Low&r.High&1
}

// Record is one user's identity and preference snapshot
type Record struct {
	ID       int    `json:"id" validate:"gte=0"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
	Contact  string `json:"contact,omitempty"`
	Location string `json:"location,omitempty"`
	Age      int    `json:"age,omitempty" validate:"omitempty,min=17,max=100"`

	Gender          string    `json:"gender" validate:"required"`
	GenderPrefCares bool      `json:"gender_pref"`
	Rent            RentRange `json:"rent"`
	NumRoommates    int       `json:"num_roommates" validate:"min=1,max=4"`
	PetsOK          bool      `json:"pets"`
	SmokingOK       bool      `json:"smoking"`
	GuestsOK        bool      `json:"guests"`
	Cleanliness     int       `json:"cleanliness" validate:"min=1,max=3"`
	Noise           int       `json:"noise" validate:"min=1,max=3"`
}

// String renders the record for logs
func (r Record) String() string {
	if r.Username != "" {
		return fmt.Sprintf("%s#%d", r.Username, r.ID)
	}
	return fmt.Sprintf("user#%d", r.ID)
}

// IDs returns the ids of records in order
func IDs(records []Record) []int {
	ids := make([]int, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}
