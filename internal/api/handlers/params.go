package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// BookingIDFromPath разбирает {bookingId} из URL
func BookingIDFromPath(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["bookingId"], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
