package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	chatmodel "github.com/dinedesk/backend/internal/model/chat"
	"github.com/dinedesk/backend/internal/model/restaurant"
)

const restaurantColumns = `id, name, cuisine, image, rating, price_level, distance,
	description, accepts_bookings, active, popular_dishes, availability`

// RestaurantRepo serves the catalog from Postgres.
type RestaurantRepo struct {
	pool *pgxpool.Pool
}

// NewRestaurantRepo creates the restaurant repository.
func NewRestaurantRepo(pool *pgxpool.Pool) *RestaurantRepo {
	return &RestaurantRepo{pool: pool}
}

// Popular returns active restaurants ordered by rating, best first.
func (r *RestaurantRepo) Popular(ctx context.Context, limit int) ([]restaurant.Restaurant, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM restaurants WHERE active ORDER BY rating DESC LIMIT $1",
		restaurantColumns)
	return r.query(ctx, query, clipLimit(limit))
}

// ByCuisine filters active restaurants by cuisine, case-insensitively.
func (r *RestaurantRepo) ByCuisine(ctx context.Context, cuisine string, limit int) ([]restaurant.Restaurant, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM restaurants WHERE active AND LOWER(cuisine) = LOWER($1) ORDER BY rating DESC LIMIT $2",
		restaurantColumns)
	return r.query(ctx, query, cuisine, clipLimit(limit))
}

// ForBooking returns active restaurants that accept table reservations.
func (r *RestaurantRepo) ForBooking(ctx context.Context, limit int) ([]restaurant.Restaurant, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM restaurants WHERE active AND accepts_bookings ORDER BY rating DESC LIMIT $1",
		restaurantColumns)
	return r.query(ctx, query, clipLimit(limit))
}

// FindByID looks up a restaurant by identifier.
func (r *RestaurantRepo) FindByID(ctx context.Context, id string) (restaurant.Restaurant, bool, error) {
	query := fmt.Sprintf("SELECT %s FROM restaurants WHERE id = $1", restaurantColumns)
	row := r.pool.QueryRow(ctx, query, id)
	item, err := scanRestaurant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return restaurant.Restaurant{}, false, nil
	}
	if err != nil {
		return restaurant.Restaurant{}, false, err
	}
	return item, true, nil
}

// Seed inserts the catalog rows, skipping identifiers that already exist.
func (r *RestaurantRepo) Seed(ctx context.Context, items []restaurant.Restaurant) error {
	for _, item := range items {
		dishes, err := json.Marshal(item.PopularDishes)
		if err != nil {
			return fmt.Errorf("failed to encode dishes for %s: %w", item.ID, err)
		}
		slots, err := json.Marshal(item.Availability)
		if err != nil {
			return fmt.Errorf("failed to encode availability for %s: %w", item.ID, err)
		}
		_, err = r.pool.Exec(ctx,
			`INSERT INTO restaurants (id, name, cuisine, image, rating, price_level, distance,
				description, accepts_bookings, active, popular_dishes, availability)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			 ON CONFLICT (id) DO NOTHING`,
			item.ID, item.Name, item.Cuisine, item.Image, item.Rating, item.PriceLevel,
			item.Distance, item.Description, item.DineIn, item.Active, dishes, slots,
		)
		if err != nil {
			return fmt.Errorf("failed to seed restaurant %s: %w", item.ID, err)
		}
	}
	return nil
}

func (r *RestaurantRepo) query(ctx context.Context, query string, args ...interface{}) ([]restaurant.Restaurant, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]restaurant.Restaurant, 0, 8)
	for rows.Next() {
		item, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanRestaurant(row pgx.Row) (restaurant.Restaurant, error) {
	var (
		item   restaurant.Restaurant
		dishes []byte
		slots  []byte
	)
	err := row.Scan(&item.ID, &item.Name, &item.Cuisine, &item.Image, &item.Rating,
		&item.PriceLevel, &item.Distance, &item.Description, &item.DineIn,
		&item.Active, &dishes, &slots)
	if err != nil {
		return restaurant.Restaurant{}, err
	}
	if len(dishes) > 0 {
		if err := json.Unmarshal(dishes, &item.PopularDishes); err != nil {
			return restaurant.Restaurant{}, fmt.Errorf("failed to decode dishes: %w", err)
		}
	}
	if len(slots) > 0 {
		var availability []chatmodel.TimeSlot
		if err := json.Unmarshal(slots, &availability); err != nil {
			return restaurant.Restaurant{}, fmt.Errorf("failed to decode availability: %w", err)
		}
		item.Availability = availability
	}
	return item, nil
}

// clipLimit turns the "no limit" zero into a generous page size so the SQL
// LIMIT clause always gets a positive value.
func clipLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	return limit
}
