package db

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/matchmaker/internal/pair"
)

type seedCity struct {
	Name, Region string
	Lat, Lng     float64
}

var seedCities = []seedCity{
	{"Madrid", "Madrid", 40.416775, -3.703790},
	{"Barcelona", "Cataluña", 41.385064, 2.173404},
	{"Valencia", "Valencia", 39.469907, -0.376288},
	{"Sevilla", "Andalucía", 37.389092, -5.984459},
	{"Bilbao", "País Vasco", 43.262706, -2.925281},
	{"Murcia", "Murcia", 37.992239, -1.130654},
	{"Toledo", "Castilla-La Mancha", 39.862832, -4.027323},
	{"Zaragoza", "Aragón", 41.648823, -0.889085},
	{"Málaga", "Andalucía", 36.721261, -4.421671},
	{"Alicante", "Valencia", 38.345996, -0.490686},
}

var (
	seedFemale        = []string{"Ana", "María", "Lucía", "Carmen", "Elena", "Laura", "Sara", "Paula", "Marta", "Irene"}
	seedMale          = []string{"Carlos", "Javier", "David", "Pablo", "Daniel", "Sergio", "Jorge", "Raúl", "Diego", "Álvaro"}
	seedOrientations  = []string{"heterosexual", "heterosexual", "heterosexual", "bisexual", "homosexual"}
	seedRelationships = []string{"seria", "casual", "amistad", "matrimonio"}
)

// SeedAdminID is the id of the administrator account created by SeedTestData.
const SeedAdminID = "admin@example.com"

// SeedTestData resets the database and populates it with demo profiles,
// likes and matches.
//
// Behavior:
//  1. Clears every table.
//  2. Creates one admin and 20 users (10 female, 10 male) spread over
//     Spanish cities. Every fifth user has no coordinate.
//  3. Generates random likes/dislikes between opposite genders; every third
//     like is reciprocated and turned into a match.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB, log *slog.Logger) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	for _, table := range []string{"notifications", "admin_logs", "reports", "chats", "messages", "matches", "dislikes", "likes", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	log.Info("cleared existing data")

	// --- Users ---
	users := []User{{
		ID: SeedAdminID, Email: SeedAdminID, Name: "Admin", Age: 35, Gender: "other",
		Country: "Spain", City: "Madrid", IsAdmin: true, IsVerified: true,
	}}
	now := time.Now().UTC()
	for i := 0; i < 20; i++ {
		gender, names := "female", seedFemale
		if i >= 10 {
			gender, names = "male", seedMale
		}
		name := names[i%10]
		city := seedCities[i%len(seedCities)]
		email := fmt.Sprintf("user%d@example.com", i+1)

		u := User{
			ID:                email,
			Email:             email,
			Name:              name,
			Age:               18 + r.Intn(30),
			Gender:            gender,
			Country:           "Spain",
			Region:            city.Region,
			City:              city.Name,
			SexualOrientation: seedOrientations[r.Intn(len(seedOrientations))],
			RelationshipType:  seedRelationships[r.Intn(len(seedRelationships))],
			IsMonogamous:      r.Intn(100) < 80,
			HasChildren:       r.Intn(100) < 25,
			Description:       fmt.Sprintf("Hola, soy %s de %s.", name, city.Name),
			Photos:            []string{fmt.Sprintf("https://picsum.photos/seed/%d/400", i+1)},
			CreatedAt:         now.Add(-time.Duration(i) * time.Hour),
		}
		if i%5 != 4 {
			lat, lng := city.Lat, city.Lng
			u.Latitude, u.Longitude = &lat, &lng
		}
		users = append(users, u)
	}
	if err := db.Create(&users).Error; err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	log.Info("seeded users", "count", len(users))

	// --- Likes / dislikes / matches ---
	profiles := users[1:]
	var likes, matches int
	voted, liked := map[string]bool{}, map[string]bool{}
	for _, actor := range profiles {
		for j := 0; j < 6; j++ {
			target := profiles[r.Intn(len(profiles))]
			if target.ID == actor.ID || target.Gender == actor.Gender || voted[pair.Ordered(actor.ID, target.ID)] {
				continue
			}
			voted[pair.Ordered(actor.ID, target.ID)] = true

			if r.Intn(100) >= 70 {
				d := Dislike{Edge{ID: pair.Ordered(actor.ID, target.ID), FromUserID: actor.ID, ToUserID: target.ID}}
				if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&d).Error; err != nil {
					return fmt.Errorf("failed to seed dislike: %w", err)
				}
				continue
			}

			l := Like{Edge{ID: pair.Ordered(actor.ID, target.ID), FromUserID: actor.ID, ToUserID: target.ID}}
			if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&l).Error; err != nil {
				return fmt.Errorf("failed to seed like: %w", err)
			}
			likes++
			liked[l.ID] = true

			// guarantee a mutual like every 3rd like
			reverse := pair.Ordered(target.ID, actor.ID)
			if !liked[reverse] {
				if likes%3 != 0 {
					continue
				}
				voted[reverse], liked[reverse] = true, true
				db.Where("id = ?", reverse).Delete(&Dislike{})
				back := Like{Edge{ID: reverse, FromUserID: target.ID, ToUserID: actor.ID}}
				db.Clauses(clause.OnConflict{DoNothing: true}).Create(&back)
			}

			a, b := pair.Sort(actor.ID, target.ID)
			id := pair.Sorted(a, b)
			res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&Match{ID: id, UserA: a, UserB: b})
			if res.Error != nil {
				return fmt.Errorf("failed to seed match: %w", res.Error)
			}
			db.Clauses(clause.OnConflict{DoNothing: true}).Create(&Chat{ID: id, UserA: a, UserB: b})
			matches += int(res.RowsAffected)
		}
	}
	log.Info("seeded interactions", "likes", likes, "matches", matches)

	return nil
}
