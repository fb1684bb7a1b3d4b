package ticket

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"
)

// Data is everything printed on an e-ticket
type Data struct {
	BookingID     string
	Status        string
	PassengerName string
	Phone         string
	Email         string
	BusName       string
	Registration  string
	From          string
	To            string
	TravelDate    string
	DepartureTime string
	Seats         []int
	Amount        int64
	Currency      string
	PaymentID     string
	PaidAt        *time.Time
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Render builds a one-page PDF ticket and a download filename
func Render(d Data) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Booking ID     : %s", d.BookingID),
		fmt.Sprintf("Status         : %s", strings.ToUpper(safe(d.Status, "-"))),
		fmt.Sprintf("Passenger      : %s", safe(d.PassengerName, "-")),
		fmt.Sprintf("Phone          : %s", safe(d.Phone, "-")),
		fmt.Sprintf("Email          : %s", safe(d.Email, "-")),
		fmt.Sprintf("Bus            : %s (%s)", safe(d.BusName, "-"), safe(d.Registration, "-")),
		fmt.Sprintf("Route          : %s -> %s", safe(d.From, "-"), safe(d.To, "-")),
		fmt.Sprintf("Date/Departure : %s %s", safe(d.TravelDate, "-"), safe(d.DepartureTime, "")),
		fmt.Sprintf("Seats          : %s", joinSeats(d.Seats)),
		fmt.Sprintf("Amount         : %s %d", safe(d.Currency, "INR"), d.Amount),
		fmt.Sprintf("Payment ID     : %s", safe(d.PaymentID, "-")),
	}
	if d.PaidAt != nil {
		lines = append(lines, fmt.Sprintf("Paid At        : %s", d.PaidAt.Format("2006-01-02 15:04")))
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Show this ticket to the conductor at boarding. Valid only for the date and seats listed.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", fmt.Errorf("failed to render ticket: %w", err)
	}

	filename := fmt.Sprintf("ETICKET_%s.pdf", unsafeFilename.ReplaceAllString(d.BookingID, "_"))
	return buf.Bytes(), filename, nil
}

func joinSeats(seats []int) string {
	if len(seats) == 0 {
		return "-"
	}
	parts := make([]string, len(seats))
	for i, s := range seats {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, ", ")
}

func safe(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
