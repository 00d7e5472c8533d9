// Package mustangctl is the operations tool for the mustang Django
// application.
//
// It replaces the project Makefile with a single binary that builds the dev
// and prod images, runs tests and management commands in containers, and
// removes the containers that belong to a checkout.
//
// # Installation
//
//	go install github.com/mustang-stock/mustangctl/cmd/mustangctl@latest
//
// # Quick Start
//
//	mustangctl build-dev
//	mustangctl migrate
//	mustangctl runserver
//	mustangctl stop
//
// # Configuration
//
// Values come from flags, then the environment, then mustang.yaml, then
// defaults. The Makefile variables IMAGE_DEV, IMAGE_PROD, PROJECT and CONFIRM
// are honored as-is; everything else uses the MUSTANG_ prefix
// (MUSTANG_SERVICE, MUSTANG_PORT, ...). A .env file in the working directory
// is loaded first and never overrides variables that are already set.
//
// # Cleanup
//
// stop and clean find containers by image, by compose project label and by
// mounts of the working directory. clean --all removes every container and
// image on the host and requires CONFIRM=1.
package mustangctl
