package rating

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DeliveryEstimator computes ship and delivery dates with business-day
// arithmetic against location and carrier holiday calendars.
type DeliveryEstimator struct {
	carrier HolidayCalendar
	store   HolidayCalendar

	// Now is injected so estimates are testable against fixed clocks.
	Now func() time.Time
}

// NewDeliveryEstimator creates an estimator using the configuration's store
// holiday list and the computed carrier calendar.
func NewDeliveryEstimator(cfg *Configuration) *DeliveryEstimator {
	return &DeliveryEstimator{
		carrier: CarrierHolidayCalendar{},
		store:   NewStoreHolidayCalendar(cfg.StoreHolidays),
		Now:     time.Now,
	}
}

// Estimate computes the promised window for shipping from a location via a
// service. transitDaysOverride > 0 replaces the service's default transit
// table (e.g., with the rate source's estimate).
func (e *DeliveryEstimator) Estimate(location *Location, service ServiceCode, transitDaysOverride int) DeliveryEstimate {
	now := e.Now()

	processing := e.processingDays(location, now)
	transit := service.TransitDays()
	if transitDaysOverride > 0 {
		transit = transitDaysOverride
	}

	// Processing counts against the location's own calendar choice.
	locCal := e.locationCalendar(location)
	shipDate := addBusinessDays(truncateDate(now), processing, locCal)

	// Carrier transit always uses carrier holidays.
	deliveryDate := addBusinessDays(shipDate, transit, e.carrier)

	return DeliveryEstimate{
		ShipDate:     shipDate,
		DeliveryDate: deliveryDate,
		RangeLabel:   rangeLabel(deliveryDate),
	}
}

// processingDays applies the per-kind policy: dropship ships same day,
// stores ship same day before cutoff, warehouses take their configured time.
func (e *DeliveryEstimator) processingDays(location *Location, now time.Time) int {
	if location == nil {
		return 1
	}
	switch location.Kind {
	case KindDropshipWarehouse:
		return 0
	case KindStore:
		if beforeCutoff(now, location.CutoffTime) {
			return 0
		}
		return 1
	default:
		if location.ProcessingDays > 0 {
			return location.ProcessingDays
		}
		return 1
	}
}

func (e *DeliveryEstimator) locationCalendar(location *Location) HolidayCalendar {
	if location != nil && location.HolidayCalendar == StoreCalendar {
		return e.store
	}
	return e.carrier
}

// beforeCutoff parses "HH:MM" and compares against now's clock time. A
// missing or malformed cutoff means the cutoff has passed.
func beforeCutoff(now time.Time, cutoff string) bool {
	parts := strings.SplitN(cutoff, ":", 2)
	if len(parts) != 2 {
		return false
	}
	hour, err1 := strconv.Atoi(parts[0])
	minute, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return false
	}
	return now.Hour()*60+now.Minute() < hour*60+minute
}

func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// rangeLabel formats the delivery date ±2 calendar days: "Jan 2–6, 2026"
// within a month, "Jan 30–Feb 3, 2026" across months.
func rangeLabel(delivery time.Time) string {
	start := delivery.AddDate(0, 0, -2)
	end := delivery.AddDate(0, 0, 2)
	if start.Month() == end.Month() {
		return fmt.Sprintf("%s %d–%d, %d", start.Month().String()[:3], start.Day(), end.Day(), end.Year())
	}
	return fmt.Sprintf("%s %d–%s %d, %d",
		start.Month().String()[:3], start.Day(),
		end.Month().String()[:3], end.Day(), end.Year())
}
