package server

//go:generate swag init --dir ../.. -g internal/server/swagger.go -o ../../docs/swagger

// @title PhishCatcher API
// @version 0.1
// @description Classifies URLs as Benign, Phishing, Malware or Defacement.
// @contact.name PhishCatcher Maintainers
// @contact.url https://github.com/raysh454/phishcatcher
// @BasePath /
