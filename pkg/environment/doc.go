// Package environment names the deployment environments the service knows
// about and normalizes the APP_ENV value into one of them.
//
//	env := environment.Parse(os.Getenv("APP_ENV")) // "prod" -> Production
//	if env.IsDevelopment() {
//		// verbose logging
//	}
package environment
