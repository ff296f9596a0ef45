package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"venuely/internal/bookings"
	"venuely/internal/connections"
	"venuely/internal/notifications"
	"venuely/internal/shared/config"
	"venuely/internal/shared/database"
	"venuely/internal/shared/txguard"
	"venuely/internal/venues"
	"venuely/pkg/cache"
	"venuely/pkg/clock"
	"venuely/pkg/devtoken"
	"venuely/pkg/lock"

	"github.com/google/uuid"
)

// Seeder goes through the services so venue counters always agree with the ledger
type Seeder struct {
	db  *database.DB
	cfg *config.Config

	venues        venues.Service
	bookings      bookings.Service
	connections   connections.Service
	notifications notifications.Service
}

func main() {
	fmt.Println("Starting venuely database seeder...")

	cfg := config.Load()
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := newSeeder(cfg, db)

	fmt.Println("\nCleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}

	fmt.Println("\nSeeding database...")
	if err := seeder.SeedAll(context.Background()); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	fmt.Println("\nDevelopment tokens (valid 24h):")
	for _, u := range []struct{ sub, role string }{{"admin-1", "admin"}, {"user-1", "user"}, {"user-2", "user"}} {
		token, err := seeder.DevToken(u.sub, u.role)
		if err != nil {
			log.Fatalf("Failed to sign token: %v", err)
		}
		fmt.Printf("  %-8s %s\n", u.sub, token)
	}

	fmt.Println("\nSeeding completed.")
}

func newSeeder(cfg *config.Config, db *database.DB) *Seeder {
	pg := db.GetPostgreSQL()
	lockTTL := lock.HoldTTL(cfg.Redis.LockTTL, cfg.Booking.StoreTimeout, cfg.Booking.MaxConflictRetries)
	guard := txguard.New(pg, lock.New(db.GetRedisClient(), "venuely:seed:venue:", lockTTL), txguard.Options{
		StoreTimeout:       cfg.Booking.StoreTimeout,
		MaxConflictRetries: cfg.Booking.MaxConflictRetries,
	})

	venueRepo := venues.NewRepository(pg)
	venueService := venues.NewService(venueRepo, guard, cache.NewService(db.GetRedisClient()))
	notificationService := notifications.NewService(notifications.NewRepository(pg), nil, guard)
	bookingService := bookings.NewService(bookings.NewRepository(pg), venueRepo, guard, venueService,
		notificationService, cfg.Booking, clock.Real)

	return &Seeder{
		db:            db,
		cfg:           cfg,
		venues:        venueService,
		bookings:      bookingService,
		connections:   connections.NewService(connections.NewRepository(pg), guard, notificationService, clock.Real),
		notifications: notificationService,
	}
}

// CleanDatabase truncates all tables, dependents first
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"notifications",
		"connections",
		"cancellations",
		"reservations",
		"venue_tables",
		"venues",
	}
	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := s.db.PostgreSQL.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}
	return nil
}

func (s *Seeder) SeedAll(ctx context.Context) error {
	venueIDs, err := s.SeedVenues(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed venues: %w", err)
	}
	if err := s.SeedBookings(ctx, venueIDs); err != nil {
		return fmt.Errorf("failed to seed bookings: %w", err)
	}
	if err := s.SeedConnections(ctx); err != nil {
		return fmt.Errorf("failed to seed connections: %w", err)
	}
	return nil
}

func (s *Seeder) SeedVenues(ctx context.Context) ([]uuid.UUID, error) {
	requests := []venues.CreateVenueRequest{
		{
			Name:      "Blue Door Bistro",
			Kind:      venues.KindRestaurant,
			Address:   "12 Hill Road, Bandra West, Mumbai",
			Capacity:  20,
			OpenTime:  "09:00",
			CloseTime: "22:00",
			Tables: []venues.TableInput{
				{Number: 1, Seats: 2, Attributes: []string{"window"}},
				{Number: 2, Seats: 4},
				{Number: 3, Seats: 6, Attributes: []string{"outdoor"}},
				{Number: 4, Seats: 8},
			},
		},
		{
			Name:      "Night Owl Desk",
			Kind:      venues.KindCoworking,
			Address:   "4th Floor, Indiranagar, Bengaluru",
			Capacity:  30,
			OpenTime:  "18:00",
			CloseTime: "02:00",
			Tables: []venues.TableInput{
				{Number: 1, Seats: 10, Attributes: []string{"quiet"}},
				{Number: 2, Seats: 20},
			},
		},
		{
			Name:      "Chai Corner",
			Kind:      venues.KindRestaurant,
			Address:   "Connaught Place, New Delhi",
			Capacity:  8,
			OpenTime:  "07:00",
			CloseTime: "15:00",
		},
	}

	ids := make([]uuid.UUID, 0, len(requests))
	for _, req := range requests {
		v, err := s.venues.CreateVenue(ctx, req)
		if err != nil {
			return nil, err
		}
		fmt.Printf("  Venue %-18s capacity %d (%s-%s)\n", v.Name, v.Capacity, v.OpenTime, v.CloseTime)
		ids = append(ids, v.ID)
	}
	return ids, nil
}

func (s *Seeder) SeedBookings(ctx context.Context, venueIDs []uuid.UUID) error {
	tomorrow := time.Now().In(s.cfg.Booking.Location()).AddDate(0, 0, 1).Format("2006-01-02")
	plan := []struct {
		user   string
		venue  int
		guests int
		at     string
	}{
		{"user-1", 0, 4, "19:30"},
		{"user-2", 0, 6, "20:00"},
		{"user-1", 1, 10, "23:00"},
		{"user-2", 2, 2, "08:30"},
	}

	for _, p := range plan {
		result, err := s.bookings.Book(ctx, p.user, bookings.CreateBookingRequest{
			VenueID:     venueIDs[p.venue].String(),
			Guests:      p.guests,
			BookingDate: tomorrow,
			BookingTime: p.at,
		}, "seed-"+p.user+"-"+p.at)
		if err != nil {
			return err
		}
		fmt.Printf("  Booking %s: %d guests at %s %s\n", result.Booking.ID, p.guests, tomorrow, p.at)
	}
	return nil
}

func (s *Seeder) SeedConnections(ctx context.Context) error {
	conn, err := s.connections.Request(ctx, "user-1", connections.ConnectRequest{
		RecipientID: "user-2",
		Message:     "Dinner on Friday?",
	})
	if err != nil {
		return err
	}
	if _, err := s.connections.Respond(ctx, "user-2", conn.ID.String(), true); err != nil {
		return err
	}
	fmt.Println("  Connection user-1 -> user-2 accepted")
	return nil
}

// DevToken signs a token the JWT middleware accepts, for local testing only
func (s *Seeder) DevToken(subject, role string) (string, error) {
	return devtoken.Sign(s.cfg.JWT, subject, role, 24*time.Hour)
}
