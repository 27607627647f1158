package alerts

import (
	"sort"
	"time"
)

// Priority levels ordered critical > high > info.
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityInfo     = "info"
)

// Alert is a trail advisory shown on the dashboard.
type Alert struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	Link        string `json:"link"`
	Source      string `json:"source"`
	Priority    string `json:"priority"`
	Description string `json:"description"`
}

// Service collects alerts from the configured sources.
type Service struct {
	// now is swappable for tests.
	now func() time.Time
}

// NewService creates an alert service.
func NewService() *Service {
	return &Service{now: time.Now}
}

// All returns every current alert, sorted by priority.
func (s *Service) All() []Alert {
	all := append(s.fireSeasonAlerts(), s.staticAlerts()...)

	order := map[string]int{PriorityCritical: 0, PriorityHigh: 1, PriorityInfo: 2}
	sort.SliceStable(all, func(i, j int) bool {
		return order[all[i].Priority] < order[all[j].Priority]
	})
	return all
}

// fireSeasonAlerts reports the woodland access restriction in force between
// June 15 and September 30.
func (s *Service) fireSeasonAlerts() []Alert {
	now := s.now()
	inSeason := false
	switch now.Month() {
	case time.June:
		inSeason = now.Day() >= 15
	case time.July, time.August, time.September:
		inSeason = true
	}
	if !inSeason {
		return nil
	}

	return []Alert{{
		Title:       "PERIODO CRITICO INCENDI - Divieti in vigore",
		Date:        now.Format("02/01/2006"),
		Link:        "http://www.regione.lazio.it/protezione_civile",
		Source:      "Sistema AIB Lazio",
		Priority:    PriorityCritical,
		Description: "Divieto di accesso ai boschi nelle ore più calde (11:00-18:00). Verificare ordinanze comunali specifiche prima di uscire.",
	}}
}

// staticAlerts lists the always-valid official sources to check before riding.
func (s *Service) staticAlerts() []Alert {
	now := s.now()
	return []Alert{
		{
			Title:       "Verifica sempre le fonti ufficiali prima di uscire",
			Date:        now.Format("02/01/2006"),
			Link:        "https://www.parcocastelliromani.it",
			Source:      "Importante",
			Priority:    PriorityHigh,
			Description: "Le ordinanze di chiusura sentieri e i tagli boschivi sono pubblicati sul sito del Parco e negli Albi Pretori comunali. Controlla sempre prima di ogni uscita.",
		},
		{
			Title:       "Stato Sentieri in Tempo Reale - Community MTB",
			Date:        "Aggiornamento continuo",
			Link:        "https://www.trailforks.com/region/castelli-romani/",
			Source:      "Trailforks",
			Priority:    PriorityInfo,
			Description: "I biker segnalano in tempo reale chiusure, fango, alberi caduti e condizioni dei sentieri. Controlla prima di uscire e contribuisci anche tu!",
		},
		{
			Title:       "Albi Pretori Comunali - Ordinanze e Tagli Boschivi",
			Date:        "Aggiornamento quotidiano",
			Link:        "https://www.comune.roccadipapa.rm.it/albo-pretorio",
			Source:      "Comuni Castelli Romani",
			Priority:    PriorityInfo,
			Description: "Le autorizzazioni per tagli boschivi e le ordinanze di chiusura sono pubblicate negli albi pretori. Cerca \"taglio\", \"utilizzazione boschiva\" o \"chiusura\".",
		},
		{
			Title:       "Protezione Civile Lazio - Allerte Meteo",
			Date:        "Aggiornamento giornaliero",
			Link:        "http://www.regione.lazio.it/protezione_civile",
			Source:      "Regione Lazio",
			Priority:    PriorityInfo,
			Description: "Consulta le allerte meteo ufficiali, i bollettini di criticità e i divieti di accesso ai boschi per rischio incendi.",
		},
	}
}
