package chat

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/blackshadow44/Substanz/internal/advisor"
	"github.com/blackshadow44/Substanz/internal/models"
)

// Responder answers free-text questions with canned, data-aware German
// replies. It is rule-based on keywords; there is no language model behind it.
type Responder struct {
	rng *rand.Rand
}

func NewResponder(seed int64) *Responder {
	return &Responder{rng: rand.New(rand.NewSource(seed))}
}

// category is one keyword bucket with its reply pool. Evaluated in order,
// first match wins.
type category struct {
	keywords []string
	replies  []string
}

var categories = []category{
	{
		[]string{"hallo", "hey", "guten tag", "servus"},
		[]string{
			"Hallo! Schön, dass du da bist. Womit kann ich dir helfen?",
			"Hey! Frag mich gern zu deinen Einträgen, Zielen oder Mustern.",
		},
	},
	{
		[]string{"wie geht"},
		[]string{
			"Mir geht es gut, danke! Wichtiger ist: Wie geht es dir?",
			"Alles bestens hier. Erzähl mir, wie dein Tag war.",
		},
	},
	{
		[]string{"hilfe", "help", "notfall"},
		[]string{
			"Wenn du dich in einer akuten Krise befindest, wende dich bitte an die Telefonseelsorge (0800 111 0 111) oder den Notruf 112.",
			"Bei akuten Problemen ist professionelle Hilfe wichtig. Die Sucht & Drogen Hotline ist unter 01806 313031 erreichbar.",
		},
	},
	{
		[]string{"aufhören", "aufhoeren", "reduzieren", "pause", "clean"},
		[]string{
			"Ein guter erster Schritt ist ein konkretes Ziel - lege im Ziele-Bereich eine Konsumpause fest und verfolge sie.",
			"Reduzieren gelingt oft leichter in kleinen Schritten. Setze dir ein erreichbares Wochenziel.",
		},
	},
	{
		[]string{"rückfall", "rueckfall"},
		[]string{
			"Ein Rückfall ist kein Scheitern, sondern Teil vieler Veränderungsprozesse. Sei nicht zu hart mit dir und dokumentiere ehrlich weiter.",
			"Wichtig ist, was du daraus lernst. Schau dir an, was dem Rückfall vorausging - dein Tagebuch hilft dabei.",
		},
	},
	{
		[]string{"motivation", "aufgeben", "schaffe das nicht"},
		[]string{
			"Jeder dokumentierte Tag ist ein Schritt. Schau dir deine Fortschritte im Erfolge-Bereich an.",
			"Veränderung braucht Zeit. Deine Streak und deine Punkte zeigen, was du schon geschafft hast.",
		},
	},
	{
		[]string{"danke", "super", "toll"},
		[]string{
			"Gern! Ich bin da, wenn du Fragen zu deinen Daten hast.",
			"Freut mich. Weiter so mit dem Tagebuch!",
		},
	},
}

// moodPrefixes are prepended when the message itself signals a mood.
var moodPrefixes = []struct {
	keywords []string
	prefix   string
}{
	{[]string{"traurig", "deprimiert"}, "Es tut mir leid, dass es dir gerade nicht gut geht. "},
	{[]string{"gestresst", "stress"}, "Stress ist ein häufiger Auslöser für Konsum. "},
	{[]string{"müde", "muede", "erschöpft"}, "Achte auf ausreichend Erholung. "},
	{[]string{"glücklich", "gluecklich", "gut drauf"}, "Schön, dass es dir gut geht! "},
}

// Reply answers the message using the diary data where the question calls for
// it, otherwise from the canned pools.
func (r *Responder) Reply(message string, entries []models.Entry, goals []models.Goal, now time.Time) string {
	lower := strings.ToLower(message)

	prefix := ""
	for _, m := range moodPrefixes {
		if containsAny(lower, m.keywords) {
			prefix = m.prefix
			break
		}
	}

	if answer := r.dataAnswer(lower, entries, goals, now); answer != "" {
		return prefix + answer
	}

	for _, c := range categories {
		if containsAny(lower, c.keywords) {
			return prefix + c.replies[r.rng.Intn(len(c.replies))]
		}
	}

	fallbacks := []string{
		"Erzähl mir mehr - du kannst mich zu deinen Mustern, Risiken, Zielen oder deinem Schlaf fragen.",
		"Das habe ich nicht ganz verstanden. Frag mich z.B. nach deinem Konsummuster oder deinen Ausgaben.",
	}
	return prefix + fallbacks[r.rng.Intn(len(fallbacks))]
}

// dataAnswer handles questions that need the actual diary data.
func (r *Responder) dataAnswer(lower string, entries []models.Entry, goals []models.Goal, now time.Time) string {
	switch {
	case containsAny(lower, []string{"muster", "pattern", "konsum", "häufig", "haeufig"}):
		if len(entries) == 0 {
			return "Noch keine Einträge vorhanden - lege zuerst ein paar an, dann kann ich Muster erkennen."
		}
		counts := make(map[string]int)
		for _, e := range entries {
			counts[e.Substance]++
		}
		top, topCount := "", 0
		for s, c := range counts {
			if c > topCount {
				top, topCount = s, c
			}
		}
		return fmt.Sprintf("Du hast %d Einträge erfasst. Am häufigsten: %s (%d mal).", len(entries), top, topCount)

	case containsAny(lower, []string{"risiko", "gefahr", "kosten", "ausgaben"}):
		advice := advisor.Analyze(entries, now)
		if len(advice.RiskPatterns) == 0 {
			return "Aktuell sehe ich keine Risikosignale in deinen Daten."
		}
		return "Mir ist aufgefallen: " + advice.RiskPatterns[0].Description

	case containsAny(lower, []string{"ziel", "goal"}):
		open := 0
		for _, g := range goals {
			if !g.Completed {
				open++
			}
		}
		if len(goals) == 0 {
			return "Du hast noch keine Ziele angelegt. Ein konkretes Ziel hilft beim Reduzieren."
		}
		return fmt.Sprintf("Du hast %d Ziele, davon %d noch offen. Bleib dran!", len(goals), open)

	case containsAny(lower, []string{"schlaf", "sleep"}):
		return "Schlafdaten kannst du als CSV importieren; der Analysebericht zeigt dir dann den Zusammenhang mit deinem Konsum."
	}

	return ""
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
