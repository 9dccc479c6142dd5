// Package application contém os casos de uso do proxy de funcionários.
//
// Ele depende apenas do pacote domain e não conhece net/http: cada operação
// recebe um context.Context, conversa com o upstream através de domain.Upstream
// e devolve (valor, encontrado, erro).
//
// Consultas agregadas (busca por nome, maior salário, top 10) são calculadas
// aqui, sobre a coleção inteira buscada a cada chamada. Nada é cacheado.
package application
