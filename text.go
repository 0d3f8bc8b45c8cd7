package main

var (
	Tagline = `Dev • Minecraft Skripts & Plugins • Servers • Python • C++ • HTML.
im js tuff in general 🤷‍♂️`

	AboutMe = `I'm **aquoric_**, a developer who blends game-server engineering with clean tooling.`
)
