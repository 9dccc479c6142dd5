// Package httplog reúne os middlewares HTTP transversais do gateway:
//
//   - RequestID: gera (ULID) ou reaproveita o X-Request-ID e o coloca no contexto
//   - AccessLog: uma linha slog por request (status, bytes, duração)
//   - Recover: transforma panic em 500 com o envelope de erro padrão
//   - Chain: compõe middlewares na ordem em que são listados
//
// WriteJSON e WriteError padronizam o corpo das respostas, incluindo o envelope
// {"error":{"code","message","request_id"}}.
package httplog
