package coordinator

import (
	"sort"
	"time"

	"github.com/fieldcrew/crewsync/internal/model"
)

// MergeShifts combina listas por-tenant en un único resultado: exactamente
// un registro por ID, ordenado futuro-primero.
//
// Dedup por ID en colisión:
//  1. gana el UpdatedAt más nuevo si ambos lo tienen
//  2. si no, gana el StartTime más tardío
//  3. empate exacto: gana el que llegó primero (orden fijo de las listas)
//
// Los tenants no deberían emitir IDs colisionados, pero el merge no puede
// romperse si pasa.
//
// Orden final: futuros (StartTime >= now) ascendente, luego pasados
// descendente.
func MergeShifts(now time.Time, lists ...[]model.ShiftRecord) []model.ShiftRecord {
	byID := make(map[string]model.ShiftRecord)
	order := make([]string, 0)

	for _, list := range lists {
		for _, rec := range list {
			cur, seen := byID[rec.ID]
			if !seen {
				byID[rec.ID] = rec
				order = append(order, rec.ID)
				continue
			}
			if challengerWins(cur, rec) {
				byID[rec.ID] = rec
			}
		}
	}

	out := make([]model.ShiftRecord, 0, len(byID))
	for _, id := range order {
		out = append(out, byID[id])
	}
	sortShifts(now, out)
	return out
}

// challengerWins decide si next reemplaza a cur en una colisión de ID.
func challengerWins(cur, next model.ShiftRecord) bool {
	if cur.UpdatedAt != nil && next.UpdatedAt != nil {
		return next.UpdatedAt.After(*cur.UpdatedAt)
	}
	return next.StartTime.After(cur.StartTime)
}

// sortShifts ordena in place: futuros ascendente primero, pasados
// descendente después.
func sortShifts(now time.Time, recs []model.ShiftRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		fi, fj := !recs[i].StartTime.Before(now), !recs[j].StartTime.Before(now)
		if fi != fj {
			return fi // futuro antes que pasado
		}
		if fi {
			return recs[i].StartTime.Before(recs[j].StartTime)
		}
		return recs[j].StartTime.Before(recs[i].StartTime)
	})
}
