// @title           Candidate Job Matching API
// @version         1.0
// @description     Scores candidates against job postings and serves ranked matches.
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:8080
// @BasePath        /api/v1

package main

import "interview_backend/internal/app"

func main() {
	app.Run()
}
