package server

//go:generate swag init -g internal/server/server.go -o docs/swagger

// @title owaspscan API
// @version 0.1
// @description Static OWASP Top 10 analysis of source snippets: findings, risk score and a suggested secure rewrite.
// @contact.name owaspscan Maintainers
// @contact.url https://github.com/raysh454/owaspscan
// @BasePath /
