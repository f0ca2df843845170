package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"github.com/KennPulvera/LNY-july20/internal/booking"
	"github.com/KennPulvera/LNY-july20/internal/config"
	"github.com/KennPulvera/LNY-july20/internal/db"
)

// Seeds a demo data set: a few weeks of branch bookings plus online
// consultations on the upcoming Saturdays.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	repo := booking.NewPgRepository(pool)

	if err := seedBranchBookings(context.Background(), repo, 120); err != nil {
		log.Fatalf("seed branch bookings: %v", err)
	}
	if err := seedOnlineBookings(context.Background(), repo, 4); err != nil {
		log.Fatalf("seed online bookings: %v", err)
	}

	log.Println("seed complete")
}

func fakeBooking(now time.Time) *booking.Booking {
	relations := booking.Relations
	birthday := booking.DateOnly(gofakeit.DateRange(now.AddDate(-10, 0, 0), now.AddDate(-1, 0, 0)))

	b := &booking.Booking{
		ID:               uuid.New(),
		GuardianName:     gofakeit.Name(),
		GuardianEmail:    gofakeit.Email(),
		GuardianPhone:    fmt.Sprintf("09%09d", rand.Intn(1000000000)),
		GuardianRelation: relations[rand.Intn(len(relations))],
		GuardianAddress:  gofakeit.Street() + ", " + gofakeit.City(),
		ChildName:        gofakeit.FirstName(),
		ChildBirthday:    birthday,
		ChildAge:         booking.ChildAgeAt(birthday, now),
		PaymentStatus:    booking.PaymentPending,
		PaymentAmount:    booking.DefaultPaymentAmount,
	}
	if b.GuardianRelation == booking.RelationOther {
		b.OtherRelationship = "Aunt"
	}
	return b
}

func seedBranchBookings(ctx context.Context, repo *booking.PgRepository, count int) error {
	log.Printf("seeding %d branch bookings", count)

	services := []string{"Initial Assessment", "Speech Therapy", "Occupational Therapy", "Follow-up Session"}
	now := time.Now()

	inserted := 0
	for inserted < count {
		b := fakeBooking(now)
		b.Branch = booking.Branches[rand.Intn(len(booking.Branches))]
		b.ServiceType = services[rand.Intn(len(services))]
		b.AppointmentDate = booking.DateOnly(now.AddDate(0, 0, 1+rand.Intn(21)))
		b.TimeSlot = booking.TimeSlots[rand.Intn(len(booking.TimeSlots))]
		b.Status = booking.StatusScheduled
		b.CreatedVia = booking.CreatedViaWalkIn
		b.AssignedProfessional = "developmental-pediatrician"

		if err := repo.Insert(ctx, b); err != nil {
			return err
		}
		inserted++
	}
	return nil
}

func seedOnlineBookings(ctx context.Context, repo *booking.PgRepository, saturdays int) error {
	log.Printf("seeding online bookings across %d saturdays", saturdays)

	now := time.Now()
	day := booking.DateOnly(now)
	for day.Weekday() != time.Saturday {
		day = day.AddDate(0, 0, 1)
	}

	for i := 0; i < saturdays; i++ {
		// Leave some slots open so the availability view shows a mix.
		for _, slot := range booking.TimeSlots[:4] {
			b := fakeBooking(now)
			b.Branch = booking.BranchNone
			b.ServiceType = booking.ServiceOnlineConsultation
			b.AppointmentDate = day
			b.TimeSlot = slot
			b.Status = booking.StatusScheduled
			b.CreatedVia = booking.CreatedViaPublic

			if err := repo.Insert(ctx, b); err != nil {
				return err
			}
		}
		day = day.AddDate(0, 0, 7)
	}
	return nil
}
