// Package application contém os casos de uso para rate limit e limite de
// concorrência.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Decide(key) retorna uma Decision (allow/deny + retry-after em
// segundos inteiros, derivado do próprio token bucket).
package application
