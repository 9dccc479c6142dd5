// Package domain define os tipos e contratos do proxy de funcionários.
//
// Este pacote não depende de net/http nem de implementações concretas: contém o
// modelo público (Employee), o modelo do upstream (UpstreamEmployee), o envelope
// genérico, o mapeamento entre eles e a taxonomia de erros (rate limit, falha de
// upstream, validação).
package domain
