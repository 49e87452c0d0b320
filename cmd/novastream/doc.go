// Command novastream downloads drama episodes served as HLS streams.
//
//	novastream download https://site.example/my-show/ --episodes 1-3,7
//	novastream queue add https://site.example/other-show/ --all
//	novastream queue run
//	novastream schedule --cron "0 2 * * *"
//
// Run "novastream help" for every command.
package main
