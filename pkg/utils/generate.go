package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateOrderID creates a human readable booking reference.
// Format: WED-YYYYMMDD-XXXXXXXX where the date is the event date.
func GenerateOrderID(eventDate time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("WED-%s-%s", eventDate.Format("20060102"), suffix)
}
