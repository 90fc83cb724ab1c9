package sample

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// Person is the sample entity. It is stored in the "Person" collection with
// the field names other clients of that collection read.
type Person struct {
	ID        uuid.UUID `bson:"_id"`
	FirstName string    `bson:"FirstName"`
	LastName  string    `bson:"LastName"`
	CreatedAt time.Time `bson:"CreatedAt"`
}

var (
	firstNames = []string{
		"Ada", "Alan", "Barbara", "Brian", "Claude", "Donald", "Edsger", "Frances",
		"Grace", "Hedy", "Ivan", "John", "Ken", "Leslie", "Margaret", "Niklaus",
		"Radia", "Rob", "Shafi", "Tim", "Vint", "Whitfield", "Yukihiro", "Zhores",
	}
	lastNames = []string{
		"Allen", "Backus", "Cerf", "Diffie", "Dijkstra", "Goldwasser", "Hamilton", "Hopper",
		"Kernighan", "Knuth", "Lamport", "Liskov", "Lovelace", "McCarthy", "Perlman", "Pike",
		"Ritchie", "Shannon", "Sutherland", "Thompson", "Turing", "Wirth", "Matsumoto", "Lamarr",
	}
)

// GeneratePersons returns n persons with random names and fresh ids.
// All of them share one CreatedAt timestamp.
func GeneratePersons(n int) []Person {
	if n <= 0 {
		return nil
	}

	now := time.Now().UTC()
	out := make([]Person, n)
	for i := range out {
		out[i] = Person{
			ID:        uuid.New(),
			FirstName: firstNames[rand.IntN(len(firstNames))],
			LastName:  lastNames[rand.IntN(len(lastNames))],
			CreatedAt: now,
		}
	}
	return out
}

// batches splits persons into consecutive slices of at most size elements.
func batches(persons []Person, size int) [][]Person {
	if size <= 0 {
		size = len(persons)
	}
	var out [][]Person
	for start := 0; start < len(persons); start += size {
		out = append(out, persons[start:min(start+size, len(persons))])
	}
	return out
}
