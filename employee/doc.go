// Package employee é o adapter HTTP do proxy de funcionários.
//
// Ele expõe as rotas públicas sob /api/v1/employee e traduz os resultados do
// pacote application em respostas:
//
//   - encontrado → 200 com o corpo JSON
//   - ausente → 404 (busca e remoção por id) ou 400 (criação sem retorno)
//   - *domain.RateLimitError → 429 + Retry-After (quando o upstream informou)
//   - *domain.ValidationError ou JSON inválido → 400
//   - *domain.UpstreamError → 502
//   - qualquer outro erro → 500
//
// Os subpacotes seguem as mesmas camadas de middleware/ratelimit: domain
// (tipos e contratos), application (casos de uso) e infra (cliente do upstream
// e destinos de métricas).
package employee
