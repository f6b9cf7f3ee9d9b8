// Run `golangci-lint cache clean` after modifying this file.

package gorules

import (
	"github.com/quasilyte/go-ruleguard/dsl"
)

func layering(m dsl.Matcher) {
	m.Match(`middleware.GetSession`, `middleware.GetApiClient`, `middleware.GetJar`, `middleware.GetLogger`).
		Where(
			!m.File().PkgPath.Matches(`environovalab/middleware`) &&
				!m.File().PkgPath.Matches(`environovalab/routes/rutil`)).
		Report(`routes reach the middleware through rutil`)
	m.Match(`labapi.New($*_)`).
		Where(
			!m.File().PkgPath.Matches(`environovalab/middleware`) &&
				!m.File().PkgPath.Matches(`environovalab/cmd`) &&
				!m.File().Name.Matches(`_test\.go$`)).
		Report(`API clients are built per session in middleware.ApiClient, use rutil.ApiClient instead`)
}

func cookies(m dsl.Matcher) {
	m.Match(`$r.Cookie($_)`).
		Where(
			m["r"].Type.Is(`*http.Request`) &&
				!m.File().PkgPath.Matches(`environovalab/middleware`) &&
				!m.File().PkgPath.Matches(`environovalab/labapi/labapitest`)).
		Report(`session state is read through the session middleware, not from cookies`)
}

func guards(m dsl.Matcher) {
	m.Match(`$s.Role == session.RoleAdmin`, `$s.Role != session.RoleAdmin`).
		Where(!m.File().PkgPath.Matches(`environovalab/session`)).
		Report(`decide access with session.Allows or session.Guard`)
}
