// Package ratelimit fornece adapters HTTP (net/http) para rate limit e limite de concorrência.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (decisão allow/deny, acquire/timeout) sem net/http
//   - infra: implementações concretas (token bucket, semáforo)
//   - ratelimit (este pacote): middlewares HTTP + extração de chave + tradução para status/headers
//
// Uso:
//
//   - ConcurrencyMiddleware fica na frente do gateway e segura a request até
//     haver vaga (fila, não rejeição por taxa); estourar o timeout vira 503.
//   - Middleware (token bucket) fica no upstream de validação, produzindo o 429
//     com Retry-After que o gateway repassa ao cliente.
package ratelimit
