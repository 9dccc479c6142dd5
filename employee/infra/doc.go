// Package infra contém implementações concretas dos contratos do pacote domain.
//
// Exemplos:
//   - Client: adapter HTTP do serviço upstream (pool de conexões, envelope, 404/429)
//   - MemoryOutcomeStore / RedisOutcomeStore / PromOutcomeRecorder: destinos dos
//     eventos de resultado das chamadas ao upstream
package infra
